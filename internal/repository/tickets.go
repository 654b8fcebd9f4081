package repository

import (
	"context"
	"time"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ticketRepo struct {
	db *gorm.DB
}

// Create inserts the ticket and any messages attached to it.
func (r *ticketRepo) Create(ctx context.Context, ticket *models.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepo) FindByID(ctx context.Context, id uuid.UUID, includeInternal bool) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			if !includeInternal {
				db = db.Where("is_internal = ?", false)
			}
			return db.Order("created_at ASC")
		}).
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ticket, nil
}

func (r *ticketRepo) List(ctx context.Context, f TicketFilter, p pagination.Request) ([]models.SupportTicket, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SupportTicket{}).Scopes(ticketFilter(f))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []models.SupportTicket
	if err := query.Order("created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepo) Claim(ctx context.Context, id, assignee uuid.UUID, toStatus string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.SupportTicket{}).
		Where("id = ? AND status = ? AND assignee_id IS NULL", id, workflow.TicketOpen).
		Updates(map[string]interface{}{
			"assignee_id": assignee,
			"status":      toStatus,
		})
	return conditional(res, countID(db, &models.SupportTicket{}, id))
}

func (r *ticketRepo) Transition(ctx context.Context, id uuid.UUID, from string, u TicketUpdate) error {
	updates := map[string]interface{}{"status": u.To}
	switch u.To {
	case workflow.TicketResolved:
		updates["resolution"] = u.Resolution
		updates["resolved_at"] = u.At
	case workflow.TicketClosed:
		updates["closed_at"] = u.At
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.SupportTicket{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return conditional(res, countID(db, &models.SupportTicket{}, id))
}

func (r *ticketRepo) SetPriority(ctx context.Context, id uuid.UUID, priority string) error {
	res := r.db.WithContext(ctx).Model(&models.SupportTicket{}).
		Where("id = ?", id).
		Update("priority", priority)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepo) AddMessage(ctx context.Context, msg *models.TicketMessage, status string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SupportTicket{}).
			Where("id = ? AND status = ?", msg.TicketID, status).
			Update("updated_at", time.Now())
		if err := conditional(res, countID(tx, &models.SupportTicket{}, msg.TicketID)); err != nil {
			return err
		}
		return tx.Create(msg).Error
	})
}

func (r *ticketRepo) ListResolvedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := r.db.WithContext(ctx).
		Where("status = ? AND resolved_at < ?", workflow.TicketResolved, cutoff).
		Order("resolved_at ASC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &models.SupportTicket{}, "status")
}

func ticketFilter(f TicketFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Priority != "" {
			db = db.Where("priority = ?", f.Priority)
		}
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.AssignedTo != nil {
			db = db.Where("assignee_id = ?", *f.AssignedTo)
		}
		if f.Unassigned {
			db = db.Where("assignee_id IS NULL")
		}
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.Search != "" {
			db = db.Where("subject ILIKE ?", likePattern(f.Search))
		}
		return db
	}
}
