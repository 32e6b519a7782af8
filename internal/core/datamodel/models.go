// Package datamodel lists the persisted entities. The per-entity gorm structs
// live in the sub-packages.
package datamodel

import (
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/deferredpayment"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/editpermission"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/expensetype"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
)

// Models returns every entity in dependency order, for AutoMigrate in
// repository specs. Production schemas come from the goose migrations.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Permission{},
		&user.UserPermission{},
		&project.Project{},
		&project.Assignment{},
		&fund.Fund{},
		&transaction.Transaction{},
		&fund.LedgerEntry{},
		&expensetype.ExpenseType{},
		&deferredpayment.DeferredPayment{},
		&editpermission.TransactionEditPermission{},
	}
}
