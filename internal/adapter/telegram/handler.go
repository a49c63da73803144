package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"scholarship-telegram-bot/internal/domain"
	"scholarship-telegram-bot/internal/metrics"
	"scholarship-telegram-bot/internal/usecase"
)

// BotAPI is the subset of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

const (
	cbAdminBroadcast = "admin:broadcast"
	cbAdminStats     = "admin:stats"
	cbAdminFunnel    = "admin:funnel"

	deliveryTimeout = 15 * time.Second
)

type Handler struct {
	bot         BotAPI
	coord       *usecase.Coordinator
	apps        domain.ApplicationRepository
	userRepo    domain.UserRepository
	broadcastUC *usecase.BroadcastUsecase
	adminIDs    map[int64]struct{}
	funnel      *usecase.FunnelUsecase
	delivery    usecase.ApplicationDelivery
	metrics     *metrics.Metrics
	logger      *slog.Logger

	workers     int
	pollTimeout int
	deliveries  sync.WaitGroup
}

func NewHandler(bot BotAPI, coord *usecase.Coordinator, apps domain.ApplicationRepository, userRepo domain.UserRepository, broadcastUC *usecase.BroadcastUsecase, adminIDs []int64, funnel *usecase.FunnelUsecase, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Handler{
		bot:         bot,
		coord:       coord,
		apps:        apps,
		userRepo:    userRepo,
		broadcastUC: broadcastUC,
		adminIDs:    admins,
		funnel:      funnel,
		logger:      logger,
		workers:     1,
		pollTimeout: 30,
	}
}

func (h *Handler) SetDelivery(d usecase.ApplicationDelivery) { h.delivery = d }

func (h *Handler) SetMetrics(m *metrics.Metrics) { h.metrics = m }

// SetPolling configures the worker count and the long-poll timeout in seconds.
func (h *Handler) SetPolling(workers, timeout int) {
	if workers > 0 {
		h.workers = workers
	}
	if timeout >= 0 {
		h.pollTimeout = timeout
	}
}

// trackFunnel is a nil-safe helper around the funnel usecase.
func (h *Handler) trackFunnel(userID int64, stage usecase.StepID) {
	if h.funnel == nil {
		return
	}
	if err := h.funnel.Reach(userID, stage); err != nil {
		h.logger.Warn("funnel hit failed", "user_id", userID, "stage", string(stage), "error", err)
	}
}

// Run long-polls Telegram until ctx is done or the update channel closes.
// Updates are handled by a worker pool sharded by user id.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.pollTimeout
	updates := h.bot.GetUpdatesChan(u)

	work := context.WithoutCancel(ctx)
	d := newDispatcher(h.workers, 16, func(upd tgbotapi.Update) {
		h.safeHandle(work, upd)
	})
	defer func() {
		d.close()
		h.deliveries.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			in, ok := parseInbound(upd)
			if !ok {
				continue
			}
			d.dispatch(in.userID, upd)
		}
	}
}

func (h *Handler) safeHandle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("update handler panic", "update_id", upd.UpdateID, "panic", fmt.Sprint(r))
		}
	}()
	h.HandleUpdate(ctx, upd)
}

type inbound struct {
	kind      string
	userID    int64
	chatID    int64
	firstName string
	text      string
	command   string
	photoID   string
	caption   string
}

func parseInbound(upd tgbotapi.Update) (inbound, bool) {
	switch {
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil:
		m := upd.Message
		in := inbound{
			kind:      "message",
			userID:    m.From.ID,
			chatID:    m.Chat.ID,
			firstName: m.From.FirstName,
			text:      m.Text,
			caption:   m.Caption,
		}
		if m.IsCommand() {
			in.kind = "command"
			in.command = m.Command()
		}
		if len(m.Photo) > 0 {
			in.photoID = m.Photo[len(m.Photo)-1].FileID
		}
		return in, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		cq := upd.CallbackQuery
		return inbound{
			kind:      "callback",
			userID:    cq.From.ID,
			chatID:    cq.Message.Chat.ID,
			firstName: cq.From.FirstName,
			text:      cq.Data,
		}, true
	}
	return inbound{}, false
}

// HandleUpdate processes a single Telegram update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	in, ok := parseInbound(upd)
	if !ok {
		return
	}
	if cq := upd.CallbackQuery; cq != nil {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			h.logger.Warn("callback answer failed", "user_id", in.userID, "error", err)
		}
	}
	h.metrics.Update(in.kind)

	admin := h.isAdmin(in.userID)
	if !admin && h.userRepo != nil {
		if err := h.userRepo.SaveUser(in.chatID); err != nil {
			h.logger.Warn("user save failed", "chat_id", in.chatID, "error", err)
		}
	}
	if admin && h.handleAdmin(in) {
		return
	}
	// stale or foreign buttons; callback data is never an answer
	if in.kind == "callback" {
		h.logger.Debug("callback ignored", "user_id", in.userID, "data", in.text)
		return
	}

	switch in.command {
	case "start":
		h.sendText(in.chatID, welcomeText(in.firstName))
	case "apply":
		h.beginApplication(ctx, in)
	case "status":
		h.showStatus(ctx, in)
	case "help":
		h.sendText(in.chatID, helpText)
	case "cancel":
		h.cancelApplication(ctx, in)
	case "admin":
		h.sendText(in.chatID, accessDeniedText)
		h.logger.Warn("admin denied", "user_id", in.userID)
	case "":
		h.answer(ctx, in)
	default:
		h.sendText(in.chatID, unknownText)
	}
}

func (h *Handler) beginApplication(ctx context.Context, in inbound) {
	view := h.coord.Begin(ctx, in.userID)
	h.metrics.SessionStarted()
	h.trackFunnel(in.userID, view.Step.ID)
	h.logger.Info("application started", "user_id", in.userID)
	h.sendPrompt(in.chatID, firstPromptText(view.Step), view.Step, true)
}

func (h *Handler) cancelApplication(ctx context.Context, in inbound) {
	if !h.coord.Cancel(ctx, in.userID) {
		h.sendTextRemoveKeyboard(in.chatID, nothingToCancelText)
		return
	}
	h.metrics.SessionCancelled()
	h.logger.Info("application cancelled", "user_id", in.userID)
	h.sendTextRemoveKeyboard(in.chatID, cancelledText)
}

func (h *Handler) showStatus(ctx context.Context, in inbound) {
	app, err := h.apps.FindLatestByUser(ctx, in.userID)
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		h.sendText(in.chatID, noApplicationText)
	case err != nil:
		h.metrics.StorageFailure("lookup")
		h.logger.Error("application lookup failed", "user_id", in.userID, "error", err)
		h.sendText(in.chatID, statusUnavailableText)
	default:
		h.sendText(in.chatID, statusText(app))
	}
}

// answer routes free text into the user's active session.
func (h *Handler) answer(ctx context.Context, in inbound) {
	out, err := h.coord.Dispatch(ctx, in.userID, in.text)
	if errors.Is(err, usecase.ErrNoActiveSession) {
		h.sendText(in.chatID, unknownText)
		return
	}
	if err != nil {
		h.logger.Error("dispatch failed", "user_id", in.userID, "error", err)
		return
	}

	switch out.Kind {
	case usecase.OutcomePrompt:
		h.trackFunnel(in.userID, out.Next.ID)
		text := out.Accepted.Acknowledge(out.Value) + "\n\n" + promptText(out.Next)
		h.sendPrompt(in.chatID, text, out.Next, out.Accepted.Kind == usecase.KindChoice)
	case usecase.OutcomeInvalid:
		h.sendPrompt(in.chatID, invalidAnswerText+"\n\n"+promptText(out.Next), out.Next, false)
	case usecase.OutcomeSubmitted:
		app := out.Application
		h.trackFunnel(in.userID, usecase.StageSubmitted)
		h.metrics.Submitted(usecase.TierFor(app.ServicePackage).String())
		h.logger.Info("application submitted", "user_id", in.userID, "application_id", app.ID, "price", app.Price)
		h.sendTextRemoveKeyboard(in.chatID, submittedText(app))
		h.deliver(app)
	case usecase.OutcomeFailed:
		h.metrics.StorageFailure("commit")
		h.logger.Error("application commit failed", "user_id", in.userID, "error", out.Err)
		h.sendTextRemoveKeyboard(in.chatID, saveFailedText)
	}
}

// deliver forwards the application to the CRM without blocking the update.
func (h *Handler) deliver(app domain.Application) {
	if h.delivery == nil {
		return
	}
	h.deliveries.Add(1)
	go func() {
		defer h.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := h.delivery.SendApplication(ctx, app); err != nil {
			h.metrics.DeliveryFailure()
			h.logger.Error("crm delivery failed", "application_id", app.ID, "error", err)
			return
		}
		h.logger.Info("crm delivery success", "application_id", app.ID)
	}()
}

// handleAdmin serves the admin menu and broadcast drafts. It reports whether the input was consumed.
func (h *Handler) handleAdmin(in inbound) bool {
	if in.command == "admin" {
		msg := tgbotapi.NewMessage(in.chatID, adminMenuText)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Broadcast", cbAdminBroadcast)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Broadcast stats", cbAdminStats)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Funnel", cbAdminFunnel)),
		)
		h.send(in.chatID, msg)
		h.logger.Info("admin opened menu", "user_id", in.userID)
		return true
	}
	if in.kind == "callback" {
		switch in.text {
		case cbAdminBroadcast:
			if h.broadcastUC == nil {
				h.sendText(in.chatID, "Broadcast is not available")
				return true
			}
			h.sendText(in.chatID, h.broadcastUC.Start(h.broadcastUC.Session(in.userID)))
			h.logger.Info("broadcast start", "user_id", in.userID)
			return true
		case cbAdminStats:
			if h.broadcastUC != nil {
				h.sendText(in.chatID, h.broadcastUC.StatsSummary(5))
			}
			return true
		case cbAdminFunnel:
			h.showFunnel(in.chatID)
			return true
		}
	}
	if h.broadcastUC == nil {
		return false
	}
	s := h.broadcastUC.Session(in.userID)
	if s.State == usecase.BStateIdle {
		return false
	}
	if in.command == "cancel" {
		msg, _ := h.broadcastUC.ConfirmSend(s, usecase.BroadcastCancel)
		h.sendText(in.chatID, msg)
		return true
	}
	if in.command != "" {
		return false
	}
	if in.photoID != "" {
		msg, opts := h.broadcastUC.ReceivePhoto(s, in.photoID, in.caption)
		h.sendTextWithInlineKeyboard(in.chatID, msg, opts)
		return true
	}
	switch s.State {
	case usecase.BStateEnter:
		msg, opts, _ := h.broadcastUC.ReceiveText(s, in.text)
		h.sendTextWithInlineKeyboard(in.chatID, msg, opts)
	case usecase.BStateConfirm:
		msg, err := h.broadcastUC.ConfirmSend(s, in.text)
		if err != nil {
			h.logger.Error("broadcast failed", "user_id", in.userID, "error", err)
		}
		h.sendText(in.chatID, msg)
		h.logger.Info("broadcast confirm", "user_id", in.userID)
	}
	return true
}

func (h *Handler) showFunnel(chatID int64) {
	if h.funnel == nil {
		h.sendText(chatID, funnelUnavailableText)
		return
	}
	labels, values, err := h.funnel.GraphData()
	if err == nil {
		err = h.sendFunnelChart(chatID, labels, values)
	}
	if err != nil {
		h.logger.Error("funnel chart failed", "error", err)
		h.sendText(chatID, h.funnel.Chart())
	}
}

func (h *Handler) isAdmin(userID int64) bool {
	_, ok := h.adminIDs[userID]
	return ok
}

func (h *Handler) send(chatID int64, c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Warn("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendText(chatID int64, text string) {
	h.send(chatID, tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) sendTextRemoveKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.send(chatID, msg)
}

// sendPrompt asks step, attaching its options as a one-time reply keyboard.
func (h *Handler) sendPrompt(chatID int64, text string, step usecase.Step, removeKeyboard bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	switch {
	case len(step.Options) > 0:
		msg.ReplyMarkup = replyKeyboard(step.Options)
	case removeKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	h.send(chatID, msg)
}

func (h *Handler) sendTextWithInlineKeyboard(chatID int64, text string, opts []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(opts) > 0 {
		msg.ReplyMarkup = inlineKeyboard(opts)
	}
	h.send(chatID, msg)
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, r)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func inlineKeyboard(opts []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o, o),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Sender implements domain.MessageSender for the broadcast usecase.
type Sender struct{ bot BotAPI }

func NewSender(bot BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) SendPhoto(chatID int64, fileID string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.bot.Send(photo)
	return err
}

func (h *Handler) sendFunnelChart(chatID int64, labels []string, values []int) error {
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// a zero range makes go-chart fail with "invalid data range"
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:      1900,
		Height:     700,
		BarWidth:   64,
		BarSpacing: 36,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	fname := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: buf.Bytes()})
	_, err := h.bot.Send(photo)
	return err
}
