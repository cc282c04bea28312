package certificates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
)

func setupIssuerTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Lot{},
		&models.Certificate{},
		&models.CertificateCounter{},
	))
	return db
}

func TestIssuerSequencesAreMonotonic(t *testing.T) {
	db := setupIssuerTestDB(t, "issuer_monotonic")
	issuer := NewIssuer()
	scope := Scope{Country: "BR", Standard: "VCS", ProjectID: "A1B2", Year: 2026}

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		seq, err := issuer.Next(ctx, db, scope)
		require.NoError(t, err)
		require.Equal(t, want, seq)
	}
}

func TestIssuerSeedsFromExistingCertificates(t *testing.T) {
	db := setupIssuerTestDB(t, "issuer_seed")
	issuer := NewIssuer()
	scope := Scope{Country: "BR", Standard: "VCS", ProjectID: "C3D4", Year: 2026}

	owner := uuid.New()
	lot := uuid.New()
	require.NoError(t, db.Create(&models.Certificate{
		Serial:    scope.SerialFor(41),
		Country:   scope.Country,
		Standard:  scope.Standard,
		ProjectID: scope.ProjectID,
		Year:      scope.Year,
		Sequence:  41,
		OwnerID:   owner,
		LotID:     lot,
	}).Error)

	seq, err := issuer.Next(context.Background(), db, scope)
	require.NoError(t, err)
	require.Equal(t, int64(42), seq)
}

func TestIssuerNeverReissuesAfterExternalAdvance(t *testing.T) {
	db := setupIssuerTestDB(t, "issuer_external_advance")
	scope := Scope{Country: "BR", Standard: "VCS", ProjectID: "E5F6", Year: 2026}
	ctx := context.Background()

	first := NewIssuer()
	seq, err := first.Next(ctx, db, scope)
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)

	// Another process issues against the same scope in between. The
	// counter row is the single source of truth, so a fresh issuer must
	// continue after it rather than hand out the same sequence twice.
	other := NewIssuer()
	seq, err = other.Next(ctx, db, scope)
	require.NoError(t, err)
	require.Equal(t, int64(2), seq)

	seq, err = first.Next(ctx, db, scope)
	require.NoError(t, err)
	require.Equal(t, int64(3), seq)

	var counter models.CertificateCounter
	require.NoError(t, db.Where(
		"country = ? AND standard = ? AND project_id = ? AND year = ?",
		scope.Country, scope.Standard, scope.ProjectID, scope.Year,
	).First(&counter).Error)
	require.Equal(t, int64(3), counter.LastSeq)
}

func TestIssuerScopesAreIndependent(t *testing.T) {
	db := setupIssuerTestDB(t, "issuer_scopes")
	issuer := NewIssuer()
	ctx := context.Background()

	a := Scope{Country: "BR", Standard: "VCS", ProjectID: "AAAA", Year: 2026}
	b := Scope{Country: "BR", Standard: "VCS", ProjectID: "AAAA", Year: 2027}

	seqA, err := issuer.Next(ctx, db, a)
	require.NoError(t, err)
	seqA2, err := issuer.Next(ctx, db, a)
	require.NoError(t, err)
	seqB, err := issuer.Next(ctx, db, b)
	require.NoError(t, err)

	require.Equal(t, int64(1), seqA)
	require.Equal(t, int64(2), seqA2)
	require.Equal(t, int64(1), seqB)
}

func TestSerialFormat(t *testing.T) {
	scope := Scope{Country: "BR", Standard: "VCS", ProjectID: "1234", Year: 2022}
	require.Equal(t, "BR-VCS-1234-2022-00000001", scope.SerialFor(1))
	require.Equal(t, "BR-VCS-1234-2022-00012345", scope.SerialFor(12345))
}

func TestScopeForLotDerivesProjectID(t *testing.T) {
	lotID := uuid.MustParse("abcdef00-0000-0000-0000-000000000000")
	scope := ScopeForLot(lotID, "BR", "VCS", 2026)
	require.Equal(t, "ABCD", scope.ProjectID)
	require.Equal(t, "BR", scope.Country)
	require.Equal(t, "VCS", scope.Standard)
	require.Equal(t, 2026, scope.Year)
}
