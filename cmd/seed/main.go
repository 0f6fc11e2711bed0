// Seeding tool for local development: creates a sample person with a full
// document set, attaches the documents to a loan application, and records a
// positive verification so the auto-approval path can be exercised.
//
// Usage (env overrides):
//
//	SEED_TENANT_ID=<uuid> SEED_PERSON_ID=<uuid> SEED_APPLICATION_ID=<uuid>
//
// Reads DATABASE_URL and other core config via loandocs/pkg/config.
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"loandocs/internal/document"
	"loandocs/internal/kycbridge"
	"loandocs/internal/relation"
	"loandocs/internal/repository/postgres"
	"loandocs/pkg/config"
	"loandocs/pkg/domain"
	"loandocs/pkg/logger"
	"loandocs/pkg/validator"
)

func main() {
	log := logger.New("seed-documents")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	tenantID := getenvUUID(log, "SEED_TENANT_ID")
	personID := getenvUUID(log, "SEED_PERSON_ID")
	applicationID := getenvUUID(log, "SEED_APPLICATION_ID")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	docRepo := postgres.NewDocumentRepository(db)
	relRepo := postgres.NewRelationRepository(db)
	verifRepo := postgres.NewVerificationRepository(db)

	store := document.NewStore(docRepo, validator.New(), log, nil)
	index := relation.NewIndex(relRepo, log, nil)
	resolver := document.NewResolver(store, index, nil, log)

	ctx := context.Background()

	docTypes := []domain.DocumentType{
		domain.DocumentTypeIdentityFront,
		domain.DocumentTypeIdentityBack,
		domain.DocumentTypeSelfie,
		domain.DocumentTypeProofOfAddress,
		domain.DocumentTypeProofOfIncome,
	}

	for _, docType := range docTypes {
		doc, err := store.Create(ctx, document.CreateInput{
			TenantID:     tenantID,
			OwnerKind:    domain.OwnerKindPerson,
			OwnerID:      personID,
			DocumentType: docType,
			FileRef:      "seed/" + string(docType) + ".pdf",
			Notes:        "seeded for local development",
		})
		if err != nil {
			log.Fatal("Failed to create document", map[string]interface{}{
				"document_type": docType,
				"error":         err.Error(),
			})
		}
		if _, err := store.Activate(ctx, doc.ID); err != nil {
			log.Fatal("Failed to activate document", map[string]interface{}{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
		}
		if _, err := resolver.AttachDocumentToApplication(ctx, applicationID, doc.ID, nil); err != nil {
			log.Fatal("Failed to attach document", map[string]interface{}{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
		}
	}

	// Positive face-match result so the bridge approves the selfie.
	rec := &domain.VerificationRecord{
		ID:         uuid.New(),
		TenantID:   tenantID,
		PersonID:   personID,
		Field:      domain.VerificationFieldFaceMatch,
		IsVerified: true,
		Method:     domain.VerificationMethodFaceMatch,
		Confidence: decimal.RequireFromString("0.9800"),
		Source:     "seed",
		CreatedAt:  time.Now().UTC(),
	}
	if err := verifRepo.Create(ctx, rec); err != nil {
		log.Fatal("Failed to create verification record", map[string]interface{}{"error": err.Error()})
	}

	bridge := kycbridge.NewBridge(store, verifRepo, nil, log)
	owner := domain.Owner{Kind: domain.OwnerKindPerson, ID: personID}
	if err := bridge.OnVerificationRecorded(ctx, owner, tenantID, rec); err != nil {
		log.Fatal("Failed to run auto-approval", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Seeding complete", map[string]interface{}{
		"tenant_id":      tenantID,
		"person_id":      personID,
		"application_id": applicationID,
		"documents":      len(docTypes),
	})
}

func getenvUUID(log logger.Logger, key string) uuid.UUID {
	if v := os.Getenv(key); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			log.Fatal("Invalid UUID in environment", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return id
	}
	return uuid.New()
}
