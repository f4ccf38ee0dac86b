package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
	"gorm.io/gorm"
)

const (
	demoOwnerID      = snowflake.ID(1)
	demoSupplierName = "Acme Industrial Supply"
)

// EnsureDemoSupplier seeds a demo supplier for local development bootstrap.
func EnsureDemoSupplier(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing supplierdomain.Supplier
		err := tx.Where("owner_id = ? AND name = ?", demoOwnerID, demoSupplierName).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&supplierdomain.Supplier{
			ID:            node.Generate(),
			OwnerID:       demoOwnerID,
			Name:          demoSupplierName,
			ContactPerson: "Dana Reyes",
			Email:         "dana@acme.example",
			Phone:         "+1-555-0100",
			Address:       "100 Depot Way, Springfield",
			Status:        supplierdomain.StatusActive,
		}).Error
	})
}
