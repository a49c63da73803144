package usecase

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"scholarship-telegram-bot/internal/domain"
)

type BroadcastState string

const (
	BStateIdle    BroadcastState = "idle"
	BStateEnter   BroadcastState = "enter_text"
	BStateConfirm BroadcastState = "confirm"
)

const (
	BroadcastSend   = "Send"
	BroadcastCancel = "Cancel"
)

type BroadcastStat struct {
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type BroadcastStatRepository interface {
	Save(stat BroadcastStat) error
	ListRecent(n int) ([]BroadcastStat, error)
}

// BroadcastSession is one admin's broadcast draft.
type BroadcastSession struct {
	State       BroadcastState
	Text        string
	PhotoFileID string
	Caption     string
}

func (s *BroadcastSession) reset() {
	s.State = BStateIdle
	s.Text = ""
	s.PhotoFileID = ""
	s.Caption = ""
}

// BroadcastUsecase sends an admin notice to every user who has written to the bot.
type BroadcastUsecase struct {
	Repo   domain.UserRepository
	Sender domain.MessageSender
	Stat   BroadcastStatRepository

	mu       sync.Mutex
	sessions map[int64]*BroadcastSession
}

func NewBroadcastUsecase(repo domain.UserRepository, sender domain.MessageSender, stat BroadcastStatRepository) *BroadcastUsecase {
	return &BroadcastUsecase{Repo: repo, Sender: sender, Stat: stat, sessions: make(map[int64]*BroadcastSession)}
}

// Session returns the admin's draft, creating an idle one if needed.
func (u *BroadcastUsecase) Session(adminID int64) *BroadcastSession {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.sessions[adminID]
	if !ok {
		s = &BroadcastSession{State: BStateIdle}
		u.sessions[adminID] = s
	}
	return s
}

func (u *BroadcastUsecase) Start(s *BroadcastSession) string {
	s.reset()
	s.State = BStateEnter
	return "Send the broadcast text as a message, or a photo with a caption."
}

func (u *BroadcastUsecase) ReceiveText(s *BroadcastSession, text string) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return "The text must not be empty. Send the broadcast text:", nil, errors.New("empty broadcast text")
	}
	s.Text = text
	s.PhotoFileID = ""
	s.Caption = ""
	s.State = BStateConfirm
	return "Confirm the broadcast:", []string{BroadcastSend, BroadcastCancel}, nil
}

func (u *BroadcastUsecase) ReceivePhoto(s *BroadcastSession, fileID, caption string) (string, []string) {
	if strings.TrimSpace(fileID) == "" {
		return "Could not read the image. Send the photo again.", nil
	}
	s.PhotoFileID = fileID
	s.Caption = caption
	s.Text = ""
	s.State = BStateConfirm
	return "Confirm the photo broadcast:", []string{BroadcastSend, BroadcastCancel}
}

func (u *BroadcastUsecase) ConfirmSend(s *BroadcastSession, cmd string) (string, error) {
	if cmd == BroadcastCancel {
		s.reset()
		return "Broadcast cancelled.", nil
	}
	if cmd != BroadcastSend {
		return "Choose: Send or Cancel", nil
	}
	ids, err := u.Repo.ListChatIDs()
	if err != nil {
		return "Could not load the user list", err
	}
	var sent, failed int
	for _, id := range ids {
		var sendErr error
		if s.PhotoFileID != "" {
			sendErr = u.Sender.SendPhoto(id, s.PhotoFileID, s.Caption)
		} else {
			sendErr = u.Sender.SendText(id, s.Text)
		}
		if sendErr != nil {
			failed++
			continue
		}
		sent++
	}
	s.reset()
	if err := u.Stat.Save(BroadcastStat{Total: len(ids), Sent: sent, Failed: failed}); err != nil {
		return fmt.Sprintf("Broadcast sent: %d delivered, %d failed (stats not saved).", sent, failed), err
	}
	return fmt.Sprintf("Broadcast sent: %d delivered, %d failed.", sent, failed), nil
}

func (u *BroadcastUsecase) StatsSummary(n int) string {
	stats, err := u.Stat.ListRecent(n)
	if err != nil || len(stats) == 0 {
		return "No broadcast statistics yet"
	}
	var b strings.Builder
	b.WriteString("Recent broadcasts:\n")
	for i, s := range stats {
		fmt.Fprintf(&b, "%d) %s: total %d, delivered %d, failed %d\n", i+1, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.Sent, s.Failed)
	}
	return b.String()
}
