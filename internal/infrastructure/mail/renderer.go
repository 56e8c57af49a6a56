package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"path"
	"sort"
	"strings"
	texttemplate "text/template"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.html templates/catalog.yaml
var templateFS embed.FS

// Template names
const (
	TemplateApprovalRequest            = "approval_request"
	TemplateSupplierInvitation         = "supplier_invitation"
	TemplateDocumentsSubmitted         = "documents_submitted"
	TemplateRevisionRequested          = "revision_requested"
	TemplateOnboardingApproved         = "onboarding_approved"
	TemplateOnboardingRejected         = "onboarding_rejected"
	TemplateSupplierWelcome            = "supplier_welcome"
	TemplateSupplierDeclined           = "supplier_declined"
	TemplateRequisitionApprovalRequest = "requisition_approval_request"
	TemplateRequisitionApproved        = "requisition_approved"
	TemplateRequisitionRejected        = "requisition_rejected"
	TemplateReminder                   = "reminder"
	TemplateEscalation                 = "escalation"
	TemplateContractRenewalNotice      = "contract_renewal_notice"
)

// ErrUnknownTemplate is returned for names missing from the catalog
var ErrUnknownTemplate = errors.New("mail: unknown template")

// Data is the template input
type Data map[string]any

type catalogFile struct {
	Layout    string                  `yaml:"layout"`
	Templates map[string]catalogEntry `yaml:"templates"`
}

type catalogEntry struct {
	Subject string   `yaml:"subject"`
	Body    string   `yaml:"body"`
	Fields  []string `yaml:"fields"`
}

type compiled struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
	fields  []string
}

// Rendered is a message without a recipient
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer renders catalog templates into subject, HTML and text parts
type Renderer struct {
	appName   string
	templates map[string]compiled
	converter *md.Converter
}

// NewRenderer loads and compiles the embedded catalog
func NewRenderer(appName string) (*Renderer, error) {
	raw, err := templateFS.ReadFile("templates/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("mail: read catalog: %w", err)
	}
	var cat catalogFile
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("mail: parse catalog: %w", err)
	}
	if cat.Layout == "" {
		return nil, errors.New("mail: catalog has no layout")
	}
	layout, err := htmltemplate.ParseFS(templateFS, path.Join("templates", cat.Layout))
	if err != nil {
		return nil, fmt.Errorf("mail: parse layout: %w", err)
	}

	r := &Renderer{
		appName:   appName,
		templates: make(map[string]compiled, len(cat.Templates)),
		converter: md.NewConverter("", true, &md.Options{EscapeMode: "disabled"}),
	}
	r.converter.Use(plugin.GitHubFlavored())

	for name, entry := range cat.Templates {
		subject, err := texttemplate.New(name).Option("missingkey=error").Parse(entry.Subject)
		if err != nil {
			return nil, fmt.Errorf("mail: template %s subject: %w", name, err)
		}
		set, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		body, err := set.ParseFS(templateFS, path.Join("templates", entry.Body))
		if err != nil {
			return nil, fmt.Errorf("mail: template %s body: %w", name, err)
		}
		r.templates[name] = compiled{subject: subject, body: body, fields: entry.Fields}
	}
	return r, nil
}

// Names lists the catalog entries in sorted order
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template. Every field the catalog lists must be present in data.
func (r *Renderer) Render(name string, data Data) (Rendered, error) {
	t, ok := r.templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var missing []string
	for _, f := range t.fields {
		if _, ok := data[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Rendered{}, fmt.Errorf("mail: template %s missing fields: %s", name, strings.Join(missing, ", "))
	}

	input := make(Data, len(data)+1)
	for k, v := range data {
		input[k] = v
	}
	if _, ok := input["AppName"]; !ok {
		input["AppName"] = r.appName
	}

	var subject bytes.Buffer
	if err := t.subject.Execute(&subject, input); err != nil {
		return Rendered{}, fmt.Errorf("mail: render %s subject: %w", name, err)
	}
	var body bytes.Buffer
	if err := t.body.ExecuteTemplate(&body, "layout", input); err != nil {
		return Rendered{}, fmt.Errorf("mail: render %s body: %w", name, err)
	}
	html := body.String()
	text, err := r.converter.ConvertString(html)
	if err != nil {
		return Rendered{}, fmt.Errorf("mail: convert %s to text: %w", name, err)
	}
	return Rendered{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html,
		Text:    text,
	}, nil
}
