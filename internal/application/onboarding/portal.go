package onboarding

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// PortalView returns what the supplier sees behind an invitation link
func (s *Service) PortalView(ctx context.Context, token string) (*PortalViewResponse, error) {
	r, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &PortalViewResponse{
		RequestNumber:      r.RequestNumber,
		SupplierName:       r.SupplierName,
		Status:             r.Status.String(),
		CanSubmit:          r.Status.AwaitsSupplier(),
		RequiredDocuments:  nonNil(r.RequiredDocuments),
		RequestedDocuments: r.RequestedDocuments,
		RevisionNote:       r.RevisionNote,
		AllowedMimeTypes:   s.cfg.AllowedMimeTypes,
		ExpiresAt:          r.InvitationExpiresAt,
		Documents:          toDocumentResponses(r.CountingDocuments()),
	}, nil
}

// PortalUploadURL returns a pre-signed PUT URL under the request's prefix
func (s *Service) PortalUploadURL(ctx context.Context, token string, req PortalUploadRequest) (*PortalUploadResponse, error) {
	r, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !r.Status.AwaitsSupplier() {
		return nil, shared.NewDomainError("INVALID_STATE", "Documents cannot be uploaded at this stage")
	}
	if onboarding.NormalizeDocumentType(req.DocumentType) == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document type is required")
	}
	if !s.mimeAllowed(req.ContentType) {
		return nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type "+req.ContentType+" is not accepted")
	}

	key := onboarding.StoragePrefix(r.TenantID, r.ID) + uuid.NewString() + "-" + storage.SafeFileName(req.FileName)
	upload, err := s.storage.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, err
	}
	return &PortalUploadResponse{StorageKey: key, Upload: upload}, nil
}

// PortalSubmit records the supplier's profile and documents. Every
// referenced object must already exist in storage.
func (s *Service) PortalSubmit(ctx context.Context, token string, req PortalSubmitRequest) (*PortalViewResponse, error) {
	r, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithActor(ctx, logger.Actor{Kind: "supplier", ID: r.SupplierID.String()})

	prefix := onboarding.StoragePrefix(r.TenantID, r.ID)
	docs := make([]onboarding.DocumentInput, 0, len(req.Documents))
	for _, d := range req.Documents {
		if !strings.HasPrefix(d.StorageKey, prefix) {
			return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document storage key does not belong to this request")
		}
		info, ok, err := s.storage.Stat(ctx, d.StorageKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shared.NewDomainError("DOCUMENT_NOT_UPLOADED", "File "+d.FileName+" has not been uploaded")
		}
		contentType := d.ContentType
		if contentType == "" {
			contentType = info.ContentType
		}
		docs = append(docs, onboarding.DocumentInput{
			DocumentType: d.DocumentType,
			FileName:     d.FileName,
			StorageKey:   d.StorageKey,
			ContentType:  contentType,
		})
	}

	sup, err := s.supplierRepo.FindByID(ctx, r.TenantID, r.SupplierID)
	if err != nil {
		return nil, err
	}
	if err := r.SubmitDocuments(onboarding.SupplierActor(r.SupplierName), docs); err != nil {
		return nil, err
	}
	if err := sup.UpdateProfile(req.Profile()); err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.SaveWithLock(ctx, r); err != nil {
			return err
		}
		return s.supplierRepo.Save(ctx, sup)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r)
	s.publish(ctx, sup)

	logger.Enrich(ctx, s.logger).Info("Supplier documents submitted",
		zap.String("request_id", r.ID.String()),
		zap.Int("documents", len(docs)))

	return s.PortalView(ctx, token)
}

// byToken resolves an invitation token. Unknown tokens are not found and
// expired ones fail with TOKEN_EXPIRED.
func (s *Service) byToken(ctx context.Context, token string) (*onboarding.Request, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrNotFound
	}
	r, err := s.requestRepo.FindByInvitationHash(ctx, onboarding.HashInvitationToken(token))
	if err != nil {
		return nil, err
	}
	if err := r.VerifyInvitation(token, s.now()); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMimeTypes) == 0 {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range s.cfg.AllowedMimeTypes {
		if strings.EqualFold(ct, allowed) {
			return true
		}
	}
	return false
}
