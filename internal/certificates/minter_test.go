package certificates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

func newTestMinter(retries int) *Minter {
	return &Minter{
		issuer:     NewIssuer(),
		country:    "BR",
		standard:   "VCS",
		maxRetries: retries,
		now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestMintCreatesSequentialCertificates(t *testing.T) {
	db := setupIssuerTestDB(t, "mint_sequential")
	minter := newTestMinter(3)

	lot := &models.Lot{ID: uuid.New(), OwnerID: uuid.New()}
	buyer := uuid.New()

	var minted []models.Certificate
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		minted, err = minter.Mint(context.Background(), tx, lot, buyer, nil, 3)
		return err
	})
	require.NoError(t, err)
	require.Len(t, minted, 3)

	scope := ScopeForLot(lot.ID, "BR", "VCS", 2026)
	for i, cert := range minted {
		require.Equal(t, scope.SerialFor(int64(i+1)), cert.Serial)
		require.Equal(t, int64(i+1), cert.Sequence)
		require.Equal(t, enums.CertificateStatusAvailable, cert.Status)
		require.Equal(t, buyer, cert.OwnerID)
		require.Equal(t, lot.ID, cert.LotID)
		require.Nil(t, cert.SaleID)
	}
}

func TestMintRetriesPastSerialConflict(t *testing.T) {
	db := setupIssuerTestDB(t, "mint_retry")
	minter := newTestMinter(3)

	lot := &models.Lot{ID: uuid.New(), OwnerID: uuid.New()}
	scope := ScopeForLot(lot.ID, "BR", "VCS", 2026)

	// Occupy the serial the counter would hand out first, while keeping the
	// stored sequence at zero so the counter still seeds from zero.
	require.NoError(t, db.Create(&models.Certificate{
		Serial:    scope.SerialFor(1),
		Country:   scope.Country,
		Standard:  scope.Standard,
		ProjectID: scope.ProjectID,
		Year:      scope.Year,
		Sequence:  0,
		OwnerID:   uuid.New(),
		LotID:     lot.ID,
	}).Error)

	var minted []models.Certificate
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		minted, err = minter.Mint(context.Background(), tx, lot, uuid.New(), nil, 1)
		return err
	})
	require.NoError(t, err)
	require.Len(t, minted, 1)
	require.Equal(t, scope.SerialFor(2), minted[0].Serial)
}

func TestMintFailsWithSerialExhausted(t *testing.T) {
	db := setupIssuerTestDB(t, "mint_exhausted")
	minter := newTestMinter(2)

	lot := &models.Lot{ID: uuid.New(), OwnerID: uuid.New()}
	scope := ScopeForLot(lot.ID, "BR", "VCS", 2026)

	for seq := int64(1); seq <= 2; seq++ {
		require.NoError(t, db.Create(&models.Certificate{
			Serial:    scope.SerialFor(seq),
			Country:   scope.Country,
			Standard:  scope.Standard,
			ProjectID: scope.ProjectID,
			Year:      scope.Year,
			Sequence:  0,
			OwnerID:   uuid.New(),
			LotID:     lot.ID,
		}).Error)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := minter.Mint(context.Background(), tx, lot, uuid.New(), nil, 1)
		return err
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSerialExhausted), fmt.Sprintf("unexpected error: %v", err))
}
