package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/app"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/evaluation"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/spend"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCategories = []string{"IT Services", "Office Supplies", "Logistics", "Facilities", "Marketing", "Consulting"}

type seedOptions struct {
	tenant    string
	password  string
	suppliers int
	months    int
	seed      uint64
}

// seedResult is what the seed command reports
type seedResult struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	Users        []string  `json:"users"`
	Suppliers    int       `json:"suppliers"`
	Contracts    int       `json:"contracts"`
	SpendRecords int       `json:"spend_records"`
	Evaluations  int       `json:"evaluations"`
}

func newSeedCmd(c *cli) *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo tenant with users, suppliers, contracts and spend",
		Long: `Seeds one tenant with a user per role, active suppliers, one active contract per
supplier, monthly spend and a quarter of evaluations. Intended for local development.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.App.IsProduction() {
				return fmt.Errorf("refusing to seed a production environment")
			}
			tenantID := uuid.New()
			if opts.tenant != "" {
				id, err := uuid.Parse(opts.tenant)
				if err != nil {
					return fmt.Errorf("invalid --tenant %q", opts.tenant)
				}
				tenantID = id
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				s := &seeder{app: a, faker: gofakeit.New(opts.seed), opts: opts, tenantID: tenantID, now: time.Now().UTC()}
				result, err := s.run(cmd.Context())
				if err != nil {
					return err
				}
				c.log.Info("Seed complete", zap.String("tenant_id", tenantID.String()))
				return c.render(cmd.OutOrStdout(), result, []string{"Item", "Count"}, [][]string{
					{"tenant " + result.TenantID.String(), ""},
					{"users", fmt.Sprint(len(result.Users))},
					{"suppliers", fmt.Sprint(result.Suppliers)},
					{"contracts", fmt.Sprint(result.Contracts)},
					{"spend records", fmt.Sprint(result.SpendRecords)},
					{"evaluations", fmt.Sprint(result.Evaluations)},
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant ID (default: a new one)")
	cmd.Flags().StringVar(&opts.password, "password", "ChangeMe123!", "password for every seeded user")
	cmd.Flags().IntVar(&opts.suppliers, "suppliers", 8, "number of active suppliers")
	cmd.Flags().IntVar(&opts.months, "months", 12, "months of spend history")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "faker seed (0 picks a random one)")
	return cmd
}

type seeder struct {
	app      *app.App
	faker    *gofakeit.Faker
	opts     seedOptions
	tenantID uuid.UUID
	now      time.Time
}

func (s *seeder) run(ctx context.Context) (*seedResult, error) {
	result := &seedResult{TenantID: s.tenantID}

	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result.Users = append(result.Users, u.Username)
	}
	buyer, finance := users[1], users[2]

	for range s.opts.suppliers {
		sup, err := s.supplier(ctx)
		if err != nil {
			return nil, err
		}
		result.Suppliers++

		con, err := s.contract(ctx, sup, buyer.ID)
		if err != nil {
			return nil, err
		}
		result.Contracts++

		n, err := s.spend(ctx, sup, con, finance.ID)
		if err != nil {
			return nil, err
		}
		result.SpendRecords += n

		if err := s.evaluation(ctx, sup, buyer.ID); err != nil {
			return nil, err
		}
		result.Evaluations++
	}
	return result, nil
}

// users creates admin, buyer, finance, manager and an employee reporting to the manager
func (s *seeder) users(ctx context.Context) ([]*identity.User, error) {
	specs := []struct {
		username string
		role     identity.Role
	}{
		{"admin", identity.RoleAdmin},
		{"buyer", identity.RoleProcurement},
		{"finance", identity.RoleFinance},
		{"manager", identity.RoleEmployee},
		{"employee", identity.RoleEmployee},
	}
	users := make([]*identity.User, 0, len(specs))
	for _, spec := range specs {
		u, err := identity.NewUser(s.tenantID, spec.username, spec.username+"@example.com", s.opts.password, spec.role)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", spec.username, err)
		}
		if err := u.SetDisplayName(s.faker.Name()); err != nil {
			return nil, err
		}
		if spec.username == "employee" {
			managerID := users[3].ID
			if err := u.SetManager(&managerID); err != nil {
				return nil, err
			}
		}
		if err := s.app.Repos.Users.Save(ctx, u); err != nil {
			return nil, fmt.Errorf("save user %s: %w", spec.username, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *seeder) supplier(ctx context.Context) (*supplier.Supplier, error) {
	sup, err := supplier.NewSupplier(s.tenantID, s.faker.Company(), s.category(), s.faker.Name(), s.faker.Email())
	if err != nil {
		return nil, err
	}
	code, err := s.app.Repos.Suppliers.GenerateCode(ctx, s.tenantID)
	if err != nil {
		return nil, err
	}
	if err := sup.Activate(code); err != nil {
		return nil, err
	}
	if err := s.app.Repos.Suppliers.Save(ctx, sup); err != nil {
		return nil, fmt.Errorf("save supplier: %w", err)
	}
	return sup, nil
}

func (s *seeder) contract(ctx context.Context, sup *supplier.Supplier, ownerID uuid.UUID) (*contract.Contract, error) {
	number, err := s.app.Repos.Contracts.GenerateNumber(ctx, s.tenantID)
	if err != nil {
		return nil, err
	}
	start := s.now.AddDate(0, -s.faker.Number(1, 18), 0)
	con, err := contract.NewContract(s.tenantID, number, sup.ID, sup.Name, ownerID, contract.Terms{
		Title:             sup.Name + " master agreement",
		Description:       s.faker.Sentence(12),
		Value:             decimal.NewFromInt(int64(s.faker.Number(10, 500)) * 1000),
		Currency:          s.app.Config.Requisition.Currency,
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, s.faker.Number(200, 900)),
		AutoRenew:         s.faker.Bool(),
		RenewalNoticeDays: 30,
	})
	if err != nil {
		return nil, err
	}
	if err := con.Activate(); err != nil {
		return nil, err
	}
	if err := s.app.Repos.Contracts.Create(ctx, con); err != nil {
		return nil, fmt.Errorf("save contract: %w", err)
	}
	return con, nil
}

func (s *seeder) spend(ctx context.Context, sup *supplier.Supplier, con *contract.Contract, createdBy uuid.UUID) (int, error) {
	records := make([]*spend.Record, 0, s.opts.months)
	for m := range s.opts.months {
		spentOn := s.now.AddDate(0, -m, -s.faker.Number(0, 27))
		contractID := con.ID
		r, err := spend.NewRecord(s.tenantID, spend.RecordInput{
			SupplierID:    sup.ID,
			SupplierName:  sup.Name,
			ContractID:    &contractID,
			Category:      sup.Category,
			Description:   s.faker.ProductName(),
			Amount:        decimal.NewFromFloat(s.faker.Price(200, 25000)).Round(2),
			Currency:      s.app.Config.Requisition.Currency,
			SpentOn:       spentOn,
			InvoiceNumber: fmt.Sprintf("INV-%08d", s.faker.Number(0, 99999999)),
			Source:        spend.SourceManual,
			CreatedBy:     &createdBy,
		})
		if err != nil {
			return 0, err
		}
		records = append(records, r)
	}
	if err := s.app.Repos.Spend.SaveBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("save spend: %w", err)
	}
	return len(records), nil
}

func (s *seeder) evaluation(ctx context.Context, sup *supplier.Supplier, evaluatorID uuid.UUID) error {
	q := (int(s.now.Month())-1)/3 + 1
	period := fmt.Sprintf("%d-Q%d", s.now.Year(), q)
	e, err := evaluation.NewEvaluation(s.tenantID, sup.ID, sup.Name, evaluatorID, period, evaluation.Scores{
		Quality:       s.faker.Number(1, 5),
		Delivery:      s.faker.Number(1, 5),
		Cost:          s.faker.Number(1, 5),
		Communication: s.faker.Number(1, 5),
	}, s.faker.Sentence(10))
	if err != nil {
		return err
	}
	if err := s.app.Repos.Evaluations.Save(ctx, e); err != nil {
		return fmt.Errorf("save evaluation: %w", err)
	}
	return nil
}

func (s *seeder) category() string {
	return seedCategories[s.faker.Number(0, len(seedCategories)-1)]
}
