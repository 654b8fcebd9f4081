package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/notify"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

const autoCloseBatch = 100

type SupportService struct {
	store    repository.Store
	cache    *cache.QueryCache
	notifier notify.Notifier
	now      func() time.Time
}

func NewSupportService(store repository.Store, qc *cache.QueryCache, notifier notify.Notifier) *SupportService {
	return &SupportService{store: store, cache: qc, notifier: notifier, now: time.Now}
}

// ParseTicketFilter builds an admin ticket filter. assignedTo accepts "me",
// "unassigned", "all" or a user id.
func ParseTicketFilter(actor Actor, search, status, priority, category, assignedTo string) (repository.TicketFilter, error) {
	f := repository.TicketFilter{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
	}
	if isAll(f.Category) {
		f.Category = ""
	}
	var ok bool
	if !isAll(status) {
		if f.Status, ok = workflow.NormalizeStatus(workflow.EntityTicket, status); !ok {
			return f, invalid("unknown ticket status %q", status)
		}
	}
	if !isAll(priority) {
		if f.Priority, ok = workflow.ParsePriority(priority); !ok {
			return f, invalid("unknown priority %q", priority)
		}
	}

	switch a := strings.ToLower(strings.TrimSpace(assignedTo)); a {
	case "", "all":
	case "me":
		id := actor.ID
		f.AssignedTo = &id
	case "unassigned", "none":
		f.Unassigned = true
	default:
		id, err := uuid.Parse(a)
		if err != nil {
			return f, invalid("assignedTo must be me, unassigned or a user id")
		}
		f.AssignedTo = &id
	}
	return f, nil
}

// Create opens a ticket with the caller's first message.
func (s *SupportService) Create(ctx context.Context, owner Actor, req *dto.CreateTicketRequest) (*models.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, invalid("subject and message are required")
	}
	priority := workflow.PriorityMedium
	if req.Priority != "" {
		var ok bool
		if priority, ok = workflow.ParsePriority(req.Priority); !ok {
			return nil, invalid("priority must be one of LOW, MEDIUM, HIGH, URGENT")
		}
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = "general"
	}

	ticket := models.SupportTicket{
		ID:       uuid.New(),
		UserID:   owner.ID,
		Subject:  subject,
		Category: category,
		Priority: priority,
		Status:   workflow.TicketOpen,
		Messages: []models.TicketMessage{{
			ID:       uuid.New(),
			AuthorID: owner.ID,
			Body:     message,
		}},
	}
	if err := s.store.Tickets().Create(ctx, &ticket); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeTickets)
	return &ticket, nil
}

func (s *SupportService) List(ctx context.Context, f repository.TicketFilter, req pagination.Request) (*Page[models.SupportTicket], error) {
	return listPage(ctx, s.cache, scopeTickets, f, req, func(p pagination.Request) ([]models.SupportTicket, int64, error) {
		return s.store.Tickets().List(ctx, f, p)
	})
}

// ListMine lists the caller's own tickets.
func (s *SupportService) ListMine(ctx context.Context, owner Actor, f repository.TicketFilter, req pagination.Request) (*Page[models.SupportTicket], error) {
	id := owner.ID
	f.UserID = &id
	f.AssignedTo, f.Unassigned = nil, false
	return s.List(ctx, f, req)
}

// Get returns a ticket with its thread. Only admins see internal notes;
// other callers must own the ticket.
func (s *SupportService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.SupportTicket, error) {
	staff := actor.Role == workflow.RoleAdmin
	ticket, err := s.store.Tickets().FindByID(ctx, id, staff)
	if err != nil {
		return nil, storeErr(err, ErrTicketNotFound)
	}
	if !staff && ticket.UserID != actor.ID {
		return nil, ErrNotTicketOwner
	}
	return ticket, nil
}

// Update applies any combination of ownership, status and priority changes.
// Moving an OPEN ticket to IN_PROGRESS is the same as taking ownership.
func (s *SupportService) Update(ctx context.Context, actor Actor, req *dto.UpdateTicketRequest) (*models.SupportTicket, error) {
	var (
		to, priority string
		ok           bool
	)
	if req.Status != "" {
		if to, ok = workflow.NormalizeStatus(workflow.EntityTicket, req.Status); !ok {
			return nil, invalid("unknown ticket status %q", req.Status)
		}
	}
	if req.Priority != "" {
		if priority, ok = workflow.ParsePriority(req.Priority); !ok {
			return nil, invalid("priority must be one of LOW, MEDIUM, HIGH, URGENT")
		}
	}
	if req.AssignedTo == nil && to == "" && priority == "" {
		return nil, invalid("nothing to update")
	}
	if req.AssignedTo != nil && *req.AssignedTo != actor.ID {
		return nil, invalid("tickets can only be assigned to the acting admin")
	}

	var (
		ticket   *models.SupportTicket
		resolved bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		tickets := tx.Tickets()
		ticket, err = tickets.FindByID(ctx, req.TicketID, true)
		if err != nil {
			return storeErr(err, ErrTicketNotFound)
		}

		claim := req.AssignedTo != nil || (to == workflow.TicketInProgress && ticket.Status == workflow.TicketOpen)
		if claim {
			if ticket.AssigneeID != nil {
				return ErrAlreadyAssigned
			}
			t, err := workflow.Authorize(workflow.EntityTicket, ticket.Status, workflow.ActionTakeOwnership, actor.Role)
			if err != nil {
				return err
			}
			if err := tickets.Claim(ctx, ticket.ID, actor.ID, t.To); err != nil {
				return storeErr(err, ErrTicketNotFound)
			}
			logTransition(workflow.EntityTicket, ticket.ID, t, actor)
			assignee := actor.ID
			ticket.AssigneeID = &assignee
			ticket.Status = t.To
		}

		if to != "" && to != ticket.Status {
			action, err := workflow.ActionFor(workflow.EntityTicket, ticket.Status, to, actor.Role)
			if err != nil {
				return err
			}
			t, err := workflow.Validate(workflow.EntityTicket, ticket.Status, action, actor.Role, req.Resolution)
			if err != nil {
				return err
			}
			at := s.now()
			err = tickets.Transition(ctx, ticket.ID, t.From, repository.TicketUpdate{
				To:         t.To,
				Resolution: strings.TrimSpace(req.Resolution),
				At:         at,
			})
			if err != nil {
				return storeErr(err, ErrTicketNotFound)
			}
			logTransition(workflow.EntityTicket, ticket.ID, t, actor)
			ticket.Status = t.To
			switch t.To {
			case workflow.TicketResolved:
				ticket.Resolution = strings.TrimSpace(req.Resolution)
				ticket.ResolvedAt = &at
				resolved = true
			case workflow.TicketClosed:
				ticket.ClosedAt = &at
			}
		}

		if priority != "" && priority != ticket.Priority {
			if actor.Role != workflow.RoleAdmin {
				return workflow.ErrForbidden
			}
			if workflow.IsTerminal(workflow.EntityTicket, ticket.Status) {
				return fmt.Errorf("priority of a %s ticket: %w", ticket.Status, workflow.ErrIllegalTransition)
			}
			if err := tickets.SetPriority(ctx, ticket.ID, priority); err != nil {
				return storeErr(err, ErrTicketNotFound)
			}
			ticket.Priority = priority
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeTickets)
	if resolved {
		s.notifyOwner(ctx, ticket, "Your support ticket was resolved",
			fmt.Sprintf("Ticket %q was resolved: %s", ticket.Subject, ticket.Resolution))
	}
	return ticket, nil
}

// Respond appends a staff message. Internal notes are hidden from the owner
// and do not trigger an email.
func (s *SupportService) Respond(ctx context.Context, actor Actor, req *dto.TicketMessageRequest) (*models.TicketMessage, error) {
	var (
		ticket *models.SupportTicket
		msg    models.TicketMessage
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		tickets := tx.Tickets()
		ticket, err = tickets.FindByID(ctx, req.TicketID, false)
		if err != nil {
			return storeErr(err, ErrTicketNotFound)
		}
		t, err := workflow.Validate(workflow.EntityTicket, ticket.Status, workflow.ActionRespond, actor.Role, req.Message)
		if err != nil {
			return err
		}

		msg = models.TicketMessage{
			ID:         uuid.New(),
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			Body:       strings.TrimSpace(req.Message),
			IsInternal: req.IsInternal,
		}
		if err := tickets.AddMessage(ctx, &msg, t.From); err != nil {
			return storeErr(err, ErrTicketNotFound)
		}
		logTransition(workflow.EntityTicket, ticket.ID, t, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeTickets)
	if !msg.IsInternal {
		s.notifyOwner(ctx, ticket, "New reply on your support ticket",
			fmt.Sprintf("Support replied to %q:\n\n%s", ticket.Subject, msg.Body))
	}
	return &msg, nil
}

// Reply appends a message from the ticket owner. A reply to a ticket that is
// waiting on the user puts it back in progress.
func (s *SupportService) Reply(ctx context.Context, owner Actor, ticketID uuid.UUID, req *dto.ReplyRequest) (*models.TicketMessage, error) {
	var msg models.TicketMessage
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		tickets := tx.Tickets()
		ticket, err := tickets.FindByID(ctx, ticketID, false)
		if err != nil {
			return storeErr(err, ErrTicketNotFound)
		}
		if ticket.UserID != owner.ID {
			return ErrNotTicketOwner
		}
		t, err := workflow.Validate(workflow.EntityTicket, ticket.Status, workflow.ActionReply, owner.Role, req.Message)
		if err != nil {
			return err
		}

		msg = models.TicketMessage{
			ID:       uuid.New(),
			TicketID: ticket.ID,
			AuthorID: owner.ID,
			Body:     strings.TrimSpace(req.Message),
		}
		if err := tickets.AddMessage(ctx, &msg, t.From); err != nil {
			return storeErr(err, ErrTicketNotFound)
		}
		if !t.Keeps() {
			err := tickets.Transition(ctx, ticket.ID, t.From, repository.TicketUpdate{To: t.To, At: s.now()})
			if err != nil {
				return storeErr(err, ErrTicketNotFound)
			}
		}
		logTransition(workflow.EntityTicket, ticket.ID, t, owner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeTickets)
	return &msg, nil
}

// AutoClose closes tickets that have been RESOLVED for longer than after.
// Tickets changed concurrently are skipped.
func (s *SupportService) AutoClose(ctx context.Context, after time.Duration) (int, error) {
	cutoff := s.now().Add(-after)
	closed := 0
	for {
		batch, err := s.store.Tickets().ListResolvedBefore(ctx, cutoff, autoCloseBatch)
		if err != nil {
			return closed, err
		}
		progressed := false
		for _, ticket := range batch {
			t, err := workflow.Authorize(workflow.EntityTicket, ticket.Status, workflow.ActionClose, SystemActor.Role)
			if err != nil {
				continue
			}
			err = s.store.Tickets().Transition(ctx, ticket.ID, t.From, repository.TicketUpdate{To: t.To, At: s.now()})
			if errors.Is(err, repository.ErrStaleState) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return closed, err
			}
			logTransition(workflow.EntityTicket, ticket.ID, t, SystemActor)
			closed++
			progressed = true
		}
		if len(batch) < autoCloseBatch || !progressed {
			break
		}
	}

	if closed > 0 {
		s.cache.Invalidate(ctx, scopeTickets)
	}
	return closed, nil
}

func (s *SupportService) notifyOwner(ctx context.Context, ticket *models.SupportTicket, subject, text string) {
	owner, err := s.store.Users().FindByID(ctx, ticket.UserID)
	if err != nil {
		slog.Warn("ticket owner lookup failed", "ticket_id", ticket.ID.String(), "error", err)
		return
	}
	notify.Async(s.notifier, notify.Message{
		ToEmail: owner.Email,
		ToName:  owner.Name,
		Subject: subject,
		Text:    text,
	})
}
