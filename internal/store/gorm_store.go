package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinicalcopilot/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&UserModel{}, &CaseModel{}, &OutputModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateOrGetUserByEmail relies on the unique index on email: the insert is a
// no-op when the row already exists, so two concurrent first logins with the
// same email converge on a single row.
func (s *GormStore) CreateOrGetUserByEmail(ctx context.Context, email, password string) (domain.User, error) {
	model := UserModel{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: password,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&model).Error; err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	var out UserModel
	if err := s.db.WithContext(ctx).First(&out, "email = ?", email).Error; err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return userFromModel(out), nil
}

// CreateCase persists a case and returns the generated id.
func (s *GormStore) CreateCase(ctx context.Context, userID string, input domain.CaseInput) (string, error) {
	model := CaseModel{
		ID:        uuid.NewString(),
		UserID:    userID,
		Complaint: input.Complaint,
		Symptoms:  input.Symptoms,
		Vitals:    input.Vitals,
		Labs:      input.Labs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", fmt.Errorf("create case: %w", err)
	}
	return model.ID, nil
}

// CreateOutput stores the report content as JSON, bound to an existing case.
func (s *GormStore) CreateOutput(ctx context.Context, caseID string, content domain.ClinicalReport) (string, error) {
	var existing CaseModel
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("create output: case %q not found", caseID)
		}
		return "", fmt.Errorf("create output: %w", err)
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode output content: %w", err)
	}
	model := OutputModel{
		ID:      uuid.NewString(),
		CaseID:  caseID,
		Content: raw,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	return model.ID, nil
}

// ListCasesByUser returns cases newest-first with each case's output content
// denormalized into the Report field. The read path assumes at most one
// output per case; the first one found wins.
func (s *GormStore) ListCasesByUser(ctx context.Context, userID string) ([]domain.Case, error) {
	var caseModels []CaseModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&caseModels).Error; err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	res := make([]domain.Case, 0, len(caseModels))
	if len(caseModels) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(caseModels))
	for _, m := range caseModels {
		ids = append(ids, m.ID)
	}
	var outputs []OutputModel
	if err := s.db.WithContext(ctx).Where("case_id IN ?", ids).Find(&outputs).Error; err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	reports := make(map[string]string, len(outputs))
	for _, o := range outputs {
		if _, ok := reports[o.CaseID]; !ok {
			reports[o.CaseID] = string(o.Content)
		}
	}

	for _, m := range caseModels {
		c := caseFromModel(m)
		if report, ok := reports[m.ID]; ok {
			c.Report = &report
		}
		res = append(res, c)
	}
	return res, nil
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func caseFromModel(m CaseModel) domain.Case {
	return domain.Case{
		ID:        m.ID,
		UserID:    m.UserID,
		Complaint: m.Complaint,
		Symptoms:  m.Symptoms,
		Vitals:    m.Vitals,
		Labs:      m.Labs,
		CreatedAt: m.CreatedAt,
	}
}
