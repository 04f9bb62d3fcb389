package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/repository/memory"
	"ai-editor-be/internal/session"
	"ai-editor-be/pkg/editor"
)

var (
	ErrSessionNotFound  = errors.New("editor session not found")
	ErrUnknownFrameType = errors.New("unknown frame type")
)

type ISessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Show(ctx context.Context, id string) (*dto.SessionResponse, error)
	Open(id string) (*session.Session, error)
	Apply(ctx context.Context, id string, frame dto.ClientFrame) (bool, error)
	Delete(ctx context.Context, id string) error
	Count() int
}

type sessionService struct {
	repo           *memory.SessionRepository
	assist         IAssistService
	exchanges      IExchangePublisher
	notifier       SessionNotifier
	log            logger.ILogger
	gatewayTimeout time.Duration
}

func NewSessionService(
	repo *memory.SessionRepository,
	assist IAssistService,
	exchanges IExchangePublisher,
	notifier SessionNotifier,
	log logger.ILogger,
	gatewayTimeout time.Duration,
) ISessionService {
	return &sessionService{
		repo:           repo,
		assist:         assist,
		exchanges:      exchanges,
		notifier:       notifier,
		log:            log,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	id := uuid.NewString()
	deps := session.Deps{
		Gateway:        s.assist,
		Suggester:      s.assist,
		Logger:         s.log,
		GatewayTimeout: s.gatewayTimeout,
	}
	if s.exchanges != nil {
		deps.Observer = s.exchanges.ForSession(id)
	}
	sess := session.New(id, deps)

	var view editor.View
	err := sess.Call(ctx, func(ed *editor.Editor) error {
		if req.Content != "" {
			if err := ed.Load(req.Content); err != nil {
				return err
			}
		}
		view = ed.View()
		return nil
	})
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("load content: %w", err)
	}

	s.repo.Save(sess)
	s.log.Info("SessionService", "Editor session created", map[string]interface{}{
		"session_id": id,
		"lines":      len(view.Lines),
	})
	return &dto.SessionResponse{Id: id, CreatedAt: sess.CreatedAt, View: view}, nil
}

func (s *sessionService) Open(id string) (*session.Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) Show(ctx context.Context, id string) (*dto.SessionResponse, error) {
	sess, err := s.Open(id)
	if err != nil {
		return nil, err
	}
	view, err := sess.View(ctx)
	if err != nil {
		return nil, s.closedAsMissing(err)
	}
	return &dto.SessionResponse{Id: id, CreatedAt: sess.CreatedAt, View: view}, nil
}

// Apply runs one client frame against the session's editor. The bool is
// the editor's "key handled" answer and is false for every other frame.
func (s *sessionService) Apply(ctx context.Context, id string, frame dto.ClientFrame) (bool, error) {
	sess, err := s.Open(id)
	if err != nil {
		return false, err
	}
	var handled bool
	err = sess.Call(ctx, func(ed *editor.Editor) error {
		var applyErr error
		handled, applyErr = ApplyFrame(ed, frame)
		return applyErr
	})
	return handled, s.closedAsMissing(err)
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Open(id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(id, dto.ServerFrame{Type: dto.FrameClosed})
	}
	s.repo.Delete(id)
	s.log.Info("SessionService", "Editor session deleted", map[string]interface{}{"session_id": id})
	return nil
}

func (s *sessionService) Count() int {
	return s.repo.Count()
}

func (s *sessionService) closedAsMissing(err error) error {
	if errors.Is(err, session.ErrClosed) {
		return ErrSessionNotFound
	}
	return err
}

// ApplyFrame maps a client frame onto the editor API. It must run on the
// session loop.
func ApplyFrame(ed *editor.Editor, f dto.ClientFrame) (bool, error) {
	switch f.Type {
	case dto.FrameInput:
		return false, ed.Input(f.Line, f.Text, f.Caret)
	case dto.FrameKey:
		return ed.Key(editor.KeyEvent{Key: f.Key, Shift: f.Shift, Line: f.Line, Offset: f.Caret}), nil
	case dto.FrameCaret:
		return false, ed.MoveCaret(editor.Caret{Line: f.Line, Offset: f.Caret})
	case dto.FramePointerMove:
		ed.PointerMove(f.Y)
	case dto.FramePointerLeave:
		ed.PointerLeave()
	case dto.FrameButtonHover:
		ed.ButtonHover(f.Hovered)
	case dto.FrameTriggerClick:
		return false, ed.TriggerClick()
	case dto.FrameClickOutside:
		ed.ClickOutside()
	case dto.FrameChoose:
		return false, ed.ChooseOption(f.Index)
	case dto.FrameAccept:
		return false, ed.Accept(f.Line)
	case dto.FrameDismiss:
		return false, ed.Dismiss(f.Line)
	case dto.FrameTryAgain:
		return false, ed.TryAgain(f.Line)
	case dto.FrameLayout:
		ed.SetLayout(f.Boxes)
	case dto.FrameLoad:
		return false, ed.Load(f.Content)
	case dto.FrameCell:
		return false, ed.SetCell(f.Line, f.Row, f.Col, f.Text)
	case dto.FrameToggle:
		return false, ed.ToggleChecked(f.Line)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownFrameType, f.Type)
	}
	return false, nil
}
