package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/orchestrator"
	"gearshare-backend/internal/repository"
)

const CollectionEmailTemplates = "email_templates"

// templateRepo reads email templates from their Records table. It is shared
// by the template CRUD service and the email service.
type templateRepo struct {
	records repository.RecordStore
	table   string
}

func (r templateRepo) findByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	recs, err := r.records.Select(ctx, r.table, repository.Query{
		Filters:    []repository.Filter{repository.Eq("name", name)},
		MaxRecords: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("email template %q: %w", name, domain.ErrNotFound)
	}
	return templateFromRecord(recs[0]), nil
}

func (r templateRepo) get(ctx context.Context, id string) (*domain.EmailTemplate, error) {
	rec, err := r.records.Get(ctx, r.table, id)
	if err != nil {
		return nil, err
	}
	return templateFromRecord(*rec), nil
}

func (r templateRepo) list(ctx context.Context) ([]domain.EmailTemplate, error) {
	recs, err := r.records.Select(ctx, r.table, repository.Query{Sort: []repository.Sort{{Field: "name"}}})
	if err != nil {
		return nil, err
	}
	out := make([]domain.EmailTemplate, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *templateFromRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type templateService struct {
	repo templateRepo
	orch *orchestrator.Orchestrator
}

// NewTemplateService manages the stored email templates. They live only in
// the Records Backend, so every write is a single primary step.
func NewTemplateService(records repository.RecordStore, table string, orch *orchestrator.Orchestrator) TemplateService {
	return &templateService{repo: templateRepo{records: records, table: table}, orch: orch}
}

func (s *templateService) Create(ctx context.Context, t *domain.EmailTemplate) (*Result[*domain.EmailTemplate], error) {
	if err := validateStruct(t); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, t.Name, ""); err != nil {
		return nil, err
	}

	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection: CollectionEmailTemplates,
		Action:     domain.ActionCreate,
		Steps: []orchestrator.Step{{
			Name:    "create email template",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				rec, err := s.repo.records.Create(ctx, s.repo.table, templateRecordFields(t))
				if err != nil {
					return err
				}
				t.ID = rec.ID
				st.EntityID = rec.ID
				st.Current = templateFields(t)
				return nil
			},
		}},
		Describe: func(st *orchestrator.State) string { return "Created email template: " + t.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(t, res), nil
}

func (s *templateService) Update(ctx context.Context, id string, patch domain.EmailTemplatePatch) (*Result[*domain.EmailTemplate], error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := s.ensureUniqueName(ctx, *patch.Name, id); err != nil {
			return nil, err
		}
	}

	var t *domain.EmailTemplate
	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionEmailTemplates,
		Action:      domain.ActionUpdate,
		EntityID:    id,
		LoadBackend: repository.BackendRecords,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.repo.get(ctx, id)
			if err != nil {
				return err
			}
			t = loaded
			st.Previous = templateFields(t)
			return nil
		},
		Steps: []orchestrator.Step{{
			Name:    "update email template",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				t.Apply(patch)
				if _, err := s.repo.records.Update(ctx, s.repo.table, id, templateRecordFields(t)); err != nil {
					return err
				}
				st.Current = templateFields(t)
				return nil
			},
		}},
		Describe: func(st *orchestrator.State) string { return "Updated email template: " + t.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(t, res), nil
}

func (s *templateService) Delete(ctx context.Context, id string) (*Result[*domain.EmailTemplate], error) {
	var t *domain.EmailTemplate
	res, err := s.orch.Execute(ctx, orchestrator.Plan{
		Collection:  CollectionEmailTemplates,
		Action:      domain.ActionDelete,
		EntityID:    id,
		LoadBackend: repository.BackendRecords,
		Load: func(ctx context.Context, st *orchestrator.State) error {
			loaded, err := s.repo.get(ctx, id)
			if err != nil {
				return err
			}
			t = loaded
			st.Previous = templateFields(t)
			return nil
		},
		Steps: []orchestrator.Step{{
			Name:    "delete email template",
			Backend: repository.BackendRecords,
			Primary: true,
			Run: func(ctx context.Context, st *orchestrator.State) error {
				return s.repo.records.Delete(ctx, s.repo.table, id)
			},
		}},
		Describe: func(st *orchestrator.State) string { return "Deleted email template: " + t.Name },
	})
	if err != nil {
		return nil, err
	}
	return newResult(t, res), nil
}

func (s *templateService) List(ctx context.Context) ([]domain.EmailTemplate, error) {
	items, err := s.repo.list(ctx)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "list email templates", Err: err}
	}
	return items, nil
}

// ensureUniqueName rejects a name already used by another template. The
// orchestrators look templates up by name, so duplicates are ambiguous.
func (s *templateService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.findByName(ctx, name)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "find email template", Err: err}
	}
	if existing.ID != selfID {
		return domain.NewValidationError("name", "template %q already exists", name)
	}
	return nil
}

func templateRecordFields(t *domain.EmailTemplate) domain.Fields {
	return domain.Fields{
		"name":    strings.TrimSpace(t.Name),
		"subject": t.Subject,
		"body":    t.Body,
		"type":    t.Type,
	}
}

func templateFields(t *domain.EmailTemplate) domain.Fields {
	f := templateRecordFields(t)
	f["id"] = t.ID
	return f
}

func templateFromRecord(rec repository.Record) *domain.EmailTemplate {
	return &domain.EmailTemplate{
		ID:      rec.ID,
		Name:    rec.Fields.String("name"),
		Subject: rec.Fields.String("subject"),
		Body:    rec.Fields.String("body"),
		Type:    rec.Fields.String("type"),
	}
}
