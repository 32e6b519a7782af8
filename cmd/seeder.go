package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/project-ledger/internal/auth"
	expensetypeDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/expensetype"
	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a bootstrap admin, sample users, two projects with funds and the global expense types.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		hash, err := auth.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			return seed(tx, hash)
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seeding complete")
	},
}

var seedPermissions = []struct {
	Name  string
	Desc  string
	Roles []string
}{
	{"funds.transfer", "Move money between the administrator fund and project funds", []string{userDatamodel.RoleAdmin}},
	{"projects.manage", "Create projects and staff them", []string{userDatamodel.RoleAdmin, userDatamodel.RoleManager}},
	{"edit_permissions.grant", "Grant temporary transaction edit access", []string{userDatamodel.RoleAdmin, userDatamodel.RoleManager}},
	{"reports.view", "View expense type reports", []string{userDatamodel.RoleAdmin, userDatamodel.RoleManager}},
	{"transactions.record", "Record deposits, withdrawals and installments", []string{userDatamodel.RoleAdmin, userDatamodel.RoleManager, userDatamodel.RoleUser}},
}

var seedUsers = []userDatamodel.User{
	{Email: "admin@ledger.local", Name: "Ledger Admin", Role: userDatamodel.RoleAdmin, IsActive: true},
	{Email: "manager@ledger.local", Name: "Project Manager", Role: userDatamodel.RoleManager, IsActive: true},
	{Email: "user@ledger.local", Name: "Site Staff", Role: userDatamodel.RoleUser, IsActive: true},
	{Email: "viewer@ledger.local", Name: "Auditor", Role: userDatamodel.RoleViewer, IsActive: true},
}

var seedExpenseTypes = []string{"Materials", "Labour", "Transport", "Equipment Rental", "Permits"}

func seed(tx *gorm.DB, passwordHash string) error {
	byRole := map[string]int64{}
	for _, u := range seedUsers {
		u.PasswordHash = passwordHash
		if err := tx.Where(userDatamodel.User{Email: u.Email}).Attrs(u).FirstOrCreate(&u).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		byRole[u.Role] = u.ID
		fmt.Println("Seeded user:", u.Email, u.Role)
	}

	for _, p := range seedPermissions {
		perm := userDatamodel.Permission{Name: p.Name, Description: p.Desc}
		if err := tx.Where(userDatamodel.Permission{Name: p.Name}).Attrs(perm).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		for _, role := range p.Roles {
			up := userDatamodel.UserPermission{UserID: byRole[role], PermissionID: perm.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&up).Error; err != nil {
				return fmt.Errorf("grant %s to %s: %w", p.Name, role, err)
			}
		}
	}

	adminID := byRole[userDatamodel.RoleAdmin]
	adminFund := fundDatamodel.Fund{Kind: fundDatamodel.KindAdmin, OwnerUserID: &adminID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&adminFund).Error; err != nil {
		return fmt.Errorf("seed admin fund: %w", err)
	}

	projects := []projectDatamodel.Project{
		{Name: "Riverside Warehouse", Description: "Warehouse fit-out", Budget: 500_000_000, Status: projectDatamodel.StatusActive, Progress: 35},
		{Name: "Hillside Clinic", Description: "Clinic renovation", Budget: 250_000_000, Status: projectDatamodel.StatusOnHold, Progress: 10},
	}
	for i, p := range projects {
		p.CreatedBy = adminID
		if err := tx.Where(projectDatamodel.Project{Name: p.Name}).Attrs(p).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed project %s: %w", p.Name, err)
		}
		projectID := p.ID
		f := fundDatamodel.Fund{Kind: fundDatamodel.KindProject, ProjectID: &projectID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&f).Error; err != nil {
			return fmt.Errorf("seed fund for %s: %w", p.Name, err)
		}

		members := []int64{byRole[userDatamodel.RoleManager]}
		if i == 0 {
			members = append(members, byRole[userDatamodel.RoleUser], byRole[userDatamodel.RoleViewer])
		}
		for _, memberID := range members {
			a := projectDatamodel.Assignment{UserID: memberID, ProjectID: projectID, AssignedBy: adminID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&a).Error; err != nil {
				return fmt.Errorf("assign user %d to %s: %w", memberID, p.Name, err)
			}
		}
		fmt.Println("Seeded project:", p.Name)
	}

	for _, name := range seedExpenseTypes {
		et := expensetypeDatamodel.ExpenseType{Name: name, IsActive: true}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&et).Error; err != nil {
			return fmt.Errorf("seed expense type %s: %w", name, err)
		}
	}
	fmt.Println("Seeded global expense types:", len(seedExpenseTypes))

	return nil
}

func clearSeedData(tx *gorm.DB) error {
	tables := []string{
		"transaction_edit_permissions",
		"deferred_payments",
		"expense_types",
		"ledger_entries",
		"transactions",
		"funds",
		"project_assignments",
		"projects",
		"user_permissions",
		"permissions",
		"users",
	}
	for _, table := range tables {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	fmt.Println("Cleared existing data")
	return nil
}
