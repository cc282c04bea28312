package certificates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

// Scope identifies one serial numbering domain. Counters are independent per
// scope; certificates minted in the same scope never share a sequence.
type Scope struct {
	Country   string
	Standard  string
	ProjectID string
	Year      int
}

// SerialFor renders the external serial for a sequence in this scope.
// Format: {country}-{standard}-{projectId}-{year}-{seq:08d}.
func (s Scope) SerialFor(seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%d-%08d", s.Country, s.Standard, s.ProjectID, s.Year, seq)
}

// ScopeForLot derives the numbering scope for a lot: the project id is the
// first four characters of the lot id, uppercased, as in the legacy registry.
func ScopeForLot(lotID uuid.UUID, country, standard string, year int) Scope {
	return Scope{
		Country:   country,
		Standard:  standard,
		ProjectID: strings.ToUpper(lotID.String()[:4]),
		Year:      year,
	}
}

const seedAttempts = 3

// Issuer hands out strictly increasing sequences per scope. The guarded UPDATE
// on certificate_counters takes the counter's row lock, so concurrent mints on
// one scope queue on the row instead of racing a read-then-insert.
type Issuer struct{}

// NewIssuer returns the counter-backed serial issuer.
func NewIssuer() Issuer {
	return Issuer{}
}

// Next increments and returns the scope's sequence inside the caller's
// transaction. A missing counter row is seeded from the highest sequence
// already minted in the scope, then the increment is retried.
func (Issuer) Next(ctx context.Context, tx *gorm.DB, scope Scope) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for serial issuance")
	}

	for attempt := 0; attempt < seedAttempts; attempt++ {
		res := tx.WithContext(ctx).Exec(`
			UPDATE certificate_counters
			SET last_seq = last_seq + 1,
				updated_at = CURRENT_TIMESTAMP
			WHERE country = ? AND standard = ? AND project_id = ? AND year = ?
		`, scope.Country, scope.Standard, scope.ProjectID, scope.Year)
		if res.Error != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment serial counter")
		}

		if res.RowsAffected > 0 {
			var seq int64
			err := tx.WithContext(ctx).Raw(`
				SELECT last_seq FROM certificate_counters
				WHERE country = ? AND standard = ? AND project_id = ? AND year = ?
			`, scope.Country, scope.Standard, scope.ProjectID, scope.Year).Scan(&seq).Error
			if err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read serial counter")
			}
			return seq, nil
		}

		if err := seedCounter(ctx, tx, scope); err != nil {
			return 0, err
		}
	}

	return 0, pkgerrors.New(pkgerrors.CodeSerialExhausted, "serial counter could not be initialized")
}

// seedCounter inserts the scope's counter row starting at the highest sequence
// minted so far, so pre-counter data keeps its numbering. A concurrent seeder
// winning the insert is fine; the caller retries the increment either way.
func seedCounter(ctx context.Context, tx *gorm.DB, scope Scope) error {
	var maxSeq int64
	err := tx.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("country = ? AND standard = ? AND project_id = ? AND year = ?",
			scope.Country, scope.Standard, scope.ProjectID, scope.Year).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read max minted sequence")
	}

	counter := models.CertificateCounter{
		Country:   scope.Country,
		Standard:  scope.Standard,
		ProjectID: scope.ProjectID,
		Year:      scope.Year,
		LastSeq:   maxSeq,
	}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed serial counter")
	}
	return nil
}
