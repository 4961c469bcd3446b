package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/config"
	"github.com/peatiscoding/cadence-sub000/internal/features/email"
	"github.com/peatiscoding/cadence-sub000/internal/features/stats"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

// staleCard is one pending card older than the digest threshold.
type staleCard struct {
	WorkflowName string
	Status       string
	CardID       string
	Age          time.Duration
}

// Service mails each assignee a periodic digest of their cards that have sat
// in a status for too long. The schedule comes from configuration; an empty
// schedule disables the job entirely.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	RunOnce(ctx context.Context) error
}

type ServiceImpl struct {
	Config    *config.Config
	Workflows workflow.Service
	Stats     stats.Repository
	Senders   email.Registry
	Logger    *zap.Logger

	scheduler *cron.Cron
}

func NewService(cfg *config.Config, workflows workflow.Service, statsRepo stats.Repository, senders email.Registry, logger *zap.Logger) Service {
	return &ServiceImpl{
		Config:    cfg,
		Workflows: workflows,
		Stats:     statsRepo,
		Senders:   senders,
		Logger:    logger,
	}
}

func (s *ServiceImpl) Start(ctx context.Context) error {
	if s.Config.DigestSchedule == "" {
		s.Logger.Info("stale-card digest disabled, no schedule configured")
		return nil
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.Config.DigestSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.RunOnce(runCtx); err != nil {
			s.Logger.Error("stale-card digest run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.Config.DigestSchedule, err)
	}

	s.scheduler.Start()
	s.Logger.Info("stale-card digest scheduled", zap.String("schedule", s.Config.DigestSchedule))
	return nil
}

func (s *ServiceImpl) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

// RunOnce scans every workflow's pending entries and mails one digest per
// assignee covering all their overdue cards.
func (s *ServiceImpl) RunOnce(ctx context.Context) error {
	maxAge, err := time.ParseDuration(s.Config.DigestMaxAge)
	if err != nil {
		return fmt.Errorf("invalid digest max age %q: %w", s.Config.DigestMaxAge, err)
	}

	workflows, err := s.Workflows.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	perUser := map[string][]staleCard{}
	for i := range workflows {
		cfg := &workflows[i]
		perStatus, err := s.Stats.ListStats(ctx, cfg.WorkflowID)
		if err != nil {
			return err
		}
		for _, st := range perStatus {
			collectStale(perUser, cfg, st, now, maxAge)
		}
	}

	for user, cards := range perUser {
		if err := s.sendDigest(ctx, user, cards); err != nil {
			s.Logger.Warn("digest delivery failed", zap.String("user", user), zap.Error(err))
		}
	}
	return nil
}

func collectStale(perUser map[string][]staleCard, cfg *workflow.Configuration, st models.StatusStats, now time.Time, maxAge time.Duration) {
	for _, pending := range st.CurrentPendings {
		age := now.Sub(time.UnixMilli(pending.StatusSince))
		if age < maxAge || pending.UserID == "" {
			continue
		}
		perUser[pending.UserID] = append(perUser[pending.UserID], staleCard{
			WorkflowName: cfg.Name,
			Status:       st.Status,
			CardID:       pending.CardID,
			Age:          age,
		})
	}
}

func (s *ServiceImpl) sendDigest(ctx context.Context, user string, cards []staleCard) error {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Age > cards[j].Age })

	var body strings.Builder
	fmt.Fprintf(&body, "You have %d card(s) waiting for action:\n\n", len(cards))
	for _, card := range cards {
		fmt.Fprintf(&body, "- %s / %s: %s (in status for %d days)\n",
			card.WorkflowName, card.Status, card.CardID, int(card.Age.Hours()/24))
	}

	from := s.digestFrom()
	if from == "" {
		return fmt.Errorf("no smtp sender configured")
	}
	domain, err := email.DomainOf(from)
	if err != nil {
		return err
	}
	sender, err := s.Senders.SenderFor(domain)
	if err != nil {
		return err
	}

	_, err = sender.SendMessage(ctx, email.Message{
		From:    from,
		To:      []string{user},
		Subject: "Cards waiting for your action",
		Body:    body.String(),
	})
	return err
}

// digestFrom picks a configured sender address deterministically.
func (s *ServiceImpl) digestFrom() string {
	domains := make([]string, 0, len(s.Config.Senders))
	for domain := range s.Config.Senders {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	for _, domain := range domains {
		if from := s.Config.Senders[domain].From; from != "" {
			return from
		}
	}
	return ""
}
