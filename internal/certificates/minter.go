package certificates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/config"
	"github.com/verdecoop/verdecoop-backend/pkg/db"
	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

type serialIssuer interface {
	Next(ctx context.Context, tx *gorm.DB, scope Scope) (int64, error)
}

// Minter creates certificates for the whole tons moved by a trade, one
// certificate per ton. Serials come from the per-scope counter; the UNIQUE
// constraint on certificates.serial is the final arbiter under concurrency,
// and a conflicting insert retries with a freshly issued sequence.
type Minter struct {
	issuer     serialIssuer
	country    string
	standard   string
	maxRetries int
	now        func() time.Time
}

// NewMinter builds a minter using the configured registry country/standard.
func NewMinter(cfg config.TradingConfig) *Minter {
	return &Minter{
		issuer:     NewIssuer(),
		country:    cfg.CertificateCountry,
		standard:   cfg.CertificateStandard,
		maxRetries: cfg.MaxMintRetries,
		now:        time.Now,
	}
}

// Mint issues count certificates for the lot inside the caller's transaction.
// Any failure leaves the transaction poisoned for the caller to roll back.
func (m *Minter) Mint(ctx context.Context, tx *gorm.DB, lot *models.Lot, ownerID uuid.UUID, saleID *uuid.UUID, count int) ([]models.Certificate, error) {
	if count <= 0 {
		return nil, nil
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for minting")
	}

	scope := ScopeForLot(lot.ID, m.country, m.standard, m.now().UTC().Year())

	minted := make([]models.Certificate, 0, count)
	for i := 0; i < count; i++ {
		cert, err := m.mintOne(ctx, tx, scope, lot.ID, ownerID, saleID, i)
		if err != nil {
			return nil, err
		}
		minted = append(minted, *cert)
	}
	return minted, nil
}

func (m *Minter) mintOne(ctx context.Context, tx *gorm.DB, scope Scope, lotID, ownerID uuid.UUID, saleID *uuid.UUID, ordinal int) (*models.Certificate, error) {
	retries := m.maxRetries
	if retries < 1 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		seq, err := m.issuer.Next(ctx, tx, scope)
		if err != nil {
			return nil, err
		}

		cert := &models.Certificate{
			Serial:    scope.SerialFor(seq),
			Country:   scope.Country,
			Standard:  scope.Standard,
			ProjectID: scope.ProjectID,
			Year:      scope.Year,
			Sequence:  seq,
			Status:    enums.CertificateStatusAvailable,
			OwnerID:   ownerID,
			LotID:     lotID,
			SaleID:    saleID,
		}

		// Savepoint so a serial conflict aborts only the insert; the counter
		// increment survives and the retry issues a fresh sequence.
		sp := fmt.Sprintf("mint_%d_%d", ordinal, attempt)
		tx.SavePoint(sp)
		err = tx.WithContext(ctx).Create(cert).Error
		if err == nil {
			return cert, nil
		}
		if !db.IsUniqueViolation(err, "certificates_serial_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert certificate")
		}
		tx.RollbackTo(sp)
	}

	return nil, pkgerrors.New(pkgerrors.CodeSerialExhausted, "serial space exhausted for scope")
}
