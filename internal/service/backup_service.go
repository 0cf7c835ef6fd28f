package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure. Member
// parent pointers are not exported; they are rebuilt from relationships.
type BackupData struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exported_at"`
	DatabaseType string         `json:"database_type"`
	Trees        []TreeBackup   `json:"trees"`
	Invites      []InviteBackup `json:"invites"`
}

// TreeBackup is a tree with everything it owns
type TreeBackup struct {
	ID            int64                `json:"id"`
	Name          string               `json:"name"`
	IsPublic      bool                 `json:"is_public"`
	OwnerID       string               `json:"owner_id"`
	Members       []MemberBackup       `json:"members"`
	Relationships []RelationshipBackup `json:"relationships"`
	Roles         []RoleBackup         `json:"roles"`
}

// MemberBackup represents a member record for backup
type MemberBackup struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
	CreatedBy   string     `json:"created_by"`
}

// RelationshipBackup references members by their exported IDs
type RelationshipBackup struct {
	FromPersonID int64      `json:"from_person_id"`
	ToPersonID   int64      `json:"to_person_id"`
	Type         string     `json:"type"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CreatedBy    string     `json:"created_by"`
}

// RoleBackup represents a role assignment for backup
type RoleBackup struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// InviteBackup represents an invite, used or not
type InviteBackup struct {
	Token          string    `json:"token"`
	TreeID         int64     `json:"tree_id"`
	Role           string    `json:"role"`
	ExpirationDate time.Time `json:"expiration_date"`
	IsUsed         bool      `json:"is_used"`
	RecipientEmail *string   `json:"recipient_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
	}

	st := repository.NewStore(s.db)
	if err := s.exportTrees(st, backup); err != nil {
		return fmt.Errorf("failed to export trees: %w", err)
	}
	if err := s.exportInvites(st, backup); err != nil {
		return fmt.Errorf("failed to export invites: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	members, rels := 0, 0
	for _, t := range backup.Trees {
		members += len(t.Members)
		rels += len(t.Relationships)
	}
	log.Printf("Exported: %d trees, %d members, %d relationships, %d invites",
		len(backup.Trees), members, rels, len(backup.Invites))
	return nil
}

func (s *BackupService) exportTrees(st *repository.Store, backup *BackupData) error {
	trees, err := st.Trees.GetAllTrees()
	if err != nil {
		return err
	}

	for _, tree := range trees {
		tb := TreeBackup{ID: tree.ID, Name: tree.Name, IsPublic: tree.IsPublic, OwnerID: tree.OwnerID}

		members, err := st.Members.GetMembersByTree(tree.ID)
		if err != nil {
			return err
		}
		for _, m := range members {
			tb.Members = append(tb.Members, MemberBackup{
				ID:          m.ID,
				FirstName:   m.FirstName,
				LastName:    m.LastName,
				Gender:      string(m.Gender),
				DateOfBirth: m.DateOfBirth,
				DateOfDeath: m.DateOfDeath,
				CreatedBy:   m.CreatedBy,
			})
		}

		rels, err := st.Relationships.GetRelationshipsByTree(tree.ID)
		if err != nil {
			return err
		}
		for _, r := range rels {
			tb.Relationships = append(tb.Relationships, RelationshipBackup{
				FromPersonID: r.FromPersonID,
				ToPersonID:   r.ToPersonID,
				Type:         string(r.Type),
				StartDate:    r.StartDate,
				EndDate:      r.EndDate,
				CreatedBy:    r.CreatedBy,
			})
		}

		roles, err := st.Roles.GetRolesByTree(tree.ID)
		if err != nil {
			return err
		}
		for _, ra := range roles {
			tb.Roles = append(tb.Roles, RoleBackup{UserID: ra.UserID, Role: string(ra.Role)})
		}

		backup.Trees = append(backup.Trees, tb)
	}
	return nil
}

func (s *BackupService) exportInvites(st *repository.Store, backup *BackupData) error {
	invites, err := st.Invites.GetAllInvites()
	if err != nil {
		return err
	}
	for _, inv := range invites {
		backup.Invites = append(backup.Invites, InviteBackup{
			Token:          inv.Token,
			TreeID:         inv.TreeID,
			Role:           string(inv.Role),
			ExpirationDate: inv.ExpirationDate,
			IsUsed:         inv.IsUsed,
			RecipientEmail: inv.RecipientEmail,
			CreatedAt:      inv.CreatedAt,
		})
	}
	return nil
}

// Import restores a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup in one transaction. Entities get new
// IDs; relationships are re-checked for cycles and parent pointers are
// rebuilt per tree. Invites for trees missing from the backup are skipped.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	treeIDs := make(map[int64]int64, len(backup.Trees))
	err := inTx(s.db, func(st *repository.Store) error {
		for _, tb := range backup.Trees {
			newID, err := importTree(st, tb)
			if err != nil {
				return fmt.Errorf("failed to import tree %d: %w", tb.ID, err)
			}
			treeIDs[tb.ID] = newID
		}

		skipped := 0
		for _, ib := range backup.Invites {
			treeID, ok := treeIDs[ib.TreeID]
			if !ok {
				skipped++
				continue
			}
			if err := importInvite(st, ib, treeID); err != nil {
				return fmt.Errorf("failed to import invite: %w", err)
			}
		}
		if skipped > 0 {
			log.Printf("Warning: skipped %d invites for trees not in the backup", skipped)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database import completed successfully: %d trees", len(treeIDs))
	return nil
}

// Clear deletes every row of every table in one transaction, children first
func (s *BackupService) Clear() error {
	return storageFailure(s.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("UPDATE members SET mother_id = NULL, father_id = NULL"); err != nil {
			return fmt.Errorf("failed to clear parent pointers: %w", err)
		}

		tables := []string{
			"invites",
			"role_assignments",
			"relationships",
			"members",
			"trees",
		}
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	}))
}

func importTree(st *repository.Store, tb TreeBackup) (int64, error) {
	tree := &models.Tree{Name: tb.Name, IsPublic: tb.IsPublic, OwnerID: tb.OwnerID}
	if err := st.Trees.CreateTree(tree); err != nil {
		return 0, err
	}

	memberIDs := make(map[int64]int64, len(tb.Members))
	for _, mb := range tb.Members {
		gender, err := models.ParseGender(mb.Gender)
		if err != nil {
			return 0, fmt.Errorf("%w: member %d: %v", ErrInvalidInput, mb.ID, err)
		}
		m := &models.Member{
			TreeID:      tree.ID,
			FirstName:   mb.FirstName,
			LastName:    mb.LastName,
			Gender:      gender,
			DateOfBirth: mb.DateOfBirth,
			DateOfDeath: mb.DateOfDeath,
			CreatedBy:   mb.CreatedBy,
		}
		if err := st.Members.CreateMember(m); err != nil {
			return 0, err
		}
		memberIDs[mb.ID] = m.ID
	}

	detector := NewCycleDetector(st.Relationships)
	for _, rb := range tb.Relationships {
		from, okFrom := memberIDs[rb.FromPersonID]
		to, okTo := memberIDs[rb.ToPersonID]
		if !okFrom || !okTo {
			return 0, fmt.Errorf("%w: relationship references unknown member", ErrInvalidInput)
		}
		relType, err := models.ParseRelationshipType(rb.Type)
		if err != nil {
			return 0, ErrInvalidRelationshipType
		}
		cycle, err := detector.WouldCreateCycle(from, to, relType, 0)
		if err != nil {
			return 0, err
		}
		if cycle {
			return 0, ErrCycleRejected
		}

		rel := &models.Relationship{
			FromPersonID: from,
			ToPersonID:   to,
			Type:         relType,
			StartDate:    rb.StartDate,
			EndDate:      rb.EndDate,
			CreatedBy:    rb.CreatedBy,
		}
		if err := st.Relationships.CreateRelationship(rel); err != nil {
			return 0, err
		}
	}

	if err := NewSynchronizer(st).Rebuild(tree.ID); err != nil {
		return 0, err
	}

	for _, rb := range tb.Roles {
		role, err := models.ParseRole(rb.Role)
		if err != nil || !role.Assignable() {
			return 0, fmt.Errorf("%w: role %q", ErrInvalidRole, rb.Role)
		}
		if _, err := grantRole(st, tree, rb.UserID, role); err != nil {
			return 0, err
		}
	}
	return tree.ID, nil
}

func importInvite(st *repository.Store, ib InviteBackup, treeID int64) error {
	role, err := models.ParseRole(ib.Role)
	if err != nil {
		return fmt.Errorf("%w: invite role %q", ErrInvalidRole, ib.Role)
	}
	return st.Invites.CreateInvite(&models.Invite{
		Token:          ib.Token,
		TreeID:         treeID,
		Role:           role,
		ExpirationDate: ib.ExpirationDate,
		IsUsed:         ib.IsUsed,
		RecipientEmail: ib.RecipientEmail,
		CreatedAt:      ib.CreatedAt,
	})
}
