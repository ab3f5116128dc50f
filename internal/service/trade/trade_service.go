package trade

import (
	"context"
	"strings"
	"time"

	"cardmarket/internal/event"
	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/pkg/log"
	"cardmarket/pkg/queue"
	"cardmarket/pkg/utils"
)

const maxMessageLen = 1000

// Accepted meeting time layouts. The first is what the web form submits.
var meetingTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// TradeDetail a trade plus its collaboration history
type TradeDetail struct {
	Trade    *model.Trade                  `json:"trade"`
	Messages []*model.TradeMessage         `json:"messages"`
	Meetings []*model.TradeMeetingProposal `json:"meetings"`
}

// TradeService trade lifecycle and collaboration operations
type TradeService interface {
	// Create opens a trade offering one of the catalog's cards
	Create(ctx context.Context, userID, productID uint64, note *string) (*model.Trade, error)

	// Offer responds to an open trade with a counter card
	Offer(ctx context.Context, tradeID, userID, productID uint64, note *string) (*model.Trade, error)

	// Accept resolves a pending trade in the responder's favor
	Accept(ctx context.Context, tradeID, userID uint64) (*model.Trade, error)

	// Decline resolves a pending trade against the responder
	Decline(ctx context.Context, tradeID, userID uint64) (*model.Trade, error)

	// Cancel withdraws an unresolved trade
	Cancel(ctx context.Context, tradeID, userID uint64) (*model.Trade, error)

	// PostMessage appends a chat message to an accepted trade
	PostMessage(ctx context.Context, tradeID, userID uint64, text string) (*model.TradeMessage, error)

	// ProposeMeeting suggests a meeting time on an accepted trade
	ProposeMeeting(ctx context.Context, tradeID, userID uint64, when string) (*model.TradeMeetingProposal, error)

	// RespondMeeting accepts or declines a pending meeting proposal
	RespondMeeting(ctx context.Context, tradeID, proposalID, userID uint64, accept bool) (*model.TradeMeetingProposal, error)

	// Get one trade with its collaboration history for a participant;
	// non-participants get the trade only
	Get(ctx context.Context, tradeID, userID uint64) (*TradeDetail, error)

	// ListMine lists trades the user participates in
	ListMine(ctx context.Context, userID uint64) ([]*model.Trade, error)

	// ListBrowse lists open trades from other users
	ListBrowse(ctx context.Context, userID uint64) ([]*model.Trade, error)

	// ListAll lists every trade (admin)
	ListAll(ctx context.Context) ([]*model.Trade, error)
}

type tradeService struct {
	tradeRepo   repository.TradeRepository
	messageRepo repository.TradeMessageRepository
	meetingRepo repository.MeetingRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	bus         queue.Queue
}

// NewTradeService creates a trade service
func NewTradeService(
	tradeRepo repository.TradeRepository,
	messageRepo repository.TradeMessageRepository,
	meetingRepo repository.MeetingRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	bus queue.Queue,
) TradeService {
	return &tradeService{
		tradeRepo:   tradeRepo,
		messageRepo: messageRepo,
		meetingRepo: meetingRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		bus:         bus,
	}
}

// emit publishes a lifecycle event. Event delivery is best effort; the state
// change already committed, so a full bus never fails the request.
func (s *tradeService) emit(ctx context.Context, ev *event.TradeEvent) {
	if err := event.Publish(ctx, s.bus, ev); err != nil {
		log.WithError(err).WithField("event", ev.Type).Warn("trade event dropped")
	}
}

func (s *tradeService) actorName(ctx context.Context, userID uint64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Username
}

// Create opens a trade
func (s *tradeService) Create(ctx context.Context, userID, productID uint64, note *string) (*model.Trade, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	trade := &model.Trade{
		InitiatorID:        userID,
		InitiatorProductID: productID,
		Status:             model.TradeStatusOpen,
		Note:               note,
	}
	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, err
	}

	ev := event.NewTradeEvent(event.TypeTradeCreated, trade.ID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.CardName = product.ProductName
	s.emit(ctx, ev)

	return trade, nil
}

// Offer responds to an open trade. The transition is a conditional write, so
// of two simultaneous offers exactly one lands; the other gets a conflict.
func (s *tradeService) Offer(ctx context.Context, tradeID, userID, productID uint64, note *string) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.InitiatorID == userID {
		return nil, utils.Validationf("cannot offer on your own trade")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	ok, err := s.tradeRepo.Offer(ctx, tradeID, userID, productID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.Conflictf("trade is no longer available")
	}

	ev := event.NewTradeEvent(event.TypeTradeOffer, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.CardName = product.ProductName
	ev.OtherID = &trade.InitiatorID
	s.emit(ctx, ev)

	return s.tradeRepo.GetByID(ctx, tradeID)
}

// Accept resolves a pending trade in the responder's favor
func (s *tradeService) Accept(ctx context.Context, tradeID, userID uint64) (*model.Trade, error) {
	return s.resolve(ctx, tradeID, userID, model.TradeStatusAccepted, event.TypeTradeAccepted)
}

// Decline resolves a pending trade against the responder
func (s *tradeService) Decline(ctx context.Context, tradeID, userID uint64) (*model.Trade, error) {
	return s.resolve(ctx, tradeID, userID, model.TradeStatusDeclined, event.TypeTradeDeclined)
}

// resolve is the shared accept/decline path; only the initiator may resolve
// and only while the trade is pending their decision.
func (s *tradeService) resolve(ctx context.Context, tradeID, userID uint64, target, eventType string) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.InitiatorID != userID {
		return nil, utils.Forbiddenf("only the trade owner can resolve it")
	}
	if trade.Status != model.TradeStatusPendingInitiator {
		return nil, utils.Conflictf("trade has no pending offer")
	}

	ok, err := s.tradeRepo.UpdateStatusFrom(ctx, tradeID, []string{model.TradeStatusPendingInitiator}, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.Conflictf("trade has no pending offer")
	}

	ev := event.NewTradeEvent(eventType, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.OtherID = trade.ResponderID
	s.emit(ctx, ev)

	return s.tradeRepo.GetByID(ctx, tradeID)
}

// Cancel withdraws an unresolved trade. Cancellation is allowed both before
// and after an offer arrives; a pending responder gets notified.
func (s *tradeService) Cancel(ctx context.Context, tradeID, userID uint64) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.InitiatorID != userID {
		return nil, utils.Forbiddenf("only the trade owner can cancel it")
	}
	if trade.IsResolved() || trade.Status == model.TradeStatusCancelled {
		return nil, utils.Conflictf("trade is already resolved")
	}

	ok, err := s.tradeRepo.UpdateStatusFrom(ctx, tradeID,
		[]string{model.TradeStatusOpen, model.TradeStatusPendingInitiator},
		model.TradeStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.Conflictf("trade is already resolved")
	}

	ev := event.NewTradeEvent(event.TypeTradeCancelled, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.OtherID = trade.ResponderID
	s.emit(ctx, ev)

	return s.tradeRepo.GetByID(ctx, tradeID)
}

// collaborator loads the trade and enforces the collaboration gate: the user
// must be a participant and the trade must be accepted.
func (s *tradeService) collaborator(ctx context.Context, tradeID, userID uint64) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(userID) {
		return nil, utils.Forbiddenf("not a participant of this trade")
	}
	if trade.Status != model.TradeStatusAccepted {
		return nil, utils.Conflictf("trade is not accepted")
	}
	return trade, nil
}

// PostMessage appends a chat message to an accepted trade
func (s *tradeService) PostMessage(ctx context.Context, tradeID, userID uint64, text string) (*model.TradeMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.Validationf("message cannot be empty")
	}
	if len(text) > maxMessageLen {
		return nil, utils.Validationf("message is too long")
	}

	trade, err := s.collaborator(ctx, tradeID, userID)
	if err != nil {
		return nil, err
	}

	message := &model.TradeMessage{
		TradeID:  tradeID,
		SenderID: userID,
		Message:  text,
	}
	if err := s.messageRepo.Add(ctx, message); err != nil {
		return nil, err
	}

	ev := event.NewTradeEvent(event.TypeMessagePosted, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.Message = text
	if other, ok := trade.OtherParticipant(userID); ok {
		ev.OtherID = &other
	}
	s.emit(ctx, ev)

	return message, nil
}

// parseMeetingTime accepts a few layouts and normalizes to UTC
func parseMeetingTime(when string) (time.Time, error) {
	when = strings.TrimSpace(when)
	for _, layout := range meetingTimeLayouts {
		if t, err := time.Parse(layout, when); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, utils.Validationf("invalid meeting time")
}

// ProposeMeeting suggests a meeting time on an accepted trade
func (s *tradeService) ProposeMeeting(ctx context.Context, tradeID, userID uint64, when string) (*model.TradeMeetingProposal, error) {
	proposedAt, err := parseMeetingTime(when)
	if err != nil {
		return nil, err
	}

	trade, err := s.collaborator(ctx, tradeID, userID)
	if err != nil {
		return nil, err
	}

	proposal := &model.TradeMeetingProposal{
		TradeID:    tradeID,
		ProposerID: userID,
		ProposedAt: proposedAt,
	}
	if err := s.meetingRepo.Propose(ctx, proposal); err != nil {
		return nil, err
	}

	ev := event.NewTradeEvent(event.TypeMeetingProposed, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.MeetingID = proposal.ID
	if other, ok := trade.OtherParticipant(userID); ok {
		ev.OtherID = &other
	}
	s.emit(ctx, ev)

	return proposal, nil
}

// RespondMeeting accepts or declines a pending meeting proposal. The update is
// conditional on the proposal still being proposed, so double responses lose.
func (s *tradeService) RespondMeeting(ctx context.Context, tradeID, proposalID, userID uint64, accept bool) (*model.TradeMeetingProposal, error) {
	trade, err := s.collaborator(ctx, tradeID, userID)
	if err != nil {
		return nil, err
	}

	proposal, err := s.meetingRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.TradeID != tradeID {
		return nil, utils.NotFoundf("meeting proposal not found")
	}
	if proposal.ProposerID == userID {
		return nil, utils.Forbiddenf("cannot respond to your own proposal")
	}

	status := model.ProposalStatusDeclined
	if accept {
		status = model.ProposalStatusAccepted
	}

	ok, err := s.meetingRepo.Respond(ctx, proposalID, userID, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.Conflictf("meeting proposal is already resolved")
	}

	ev := event.NewTradeEvent(event.TypeMeetingResponded, tradeID, userID)
	ev.ActorName = s.actorName(ctx, userID)
	ev.MeetingID = proposalID
	ev.Accepted = accept
	if other, ok := trade.OtherParticipant(userID); ok {
		ev.OtherID = &other
	}
	s.emit(ctx, ev)

	return s.meetingRepo.GetByID(ctx, proposalID)
}

// Get one trade with collaboration history for participants
func (s *tradeService) Get(ctx context.Context, tradeID, userID uint64) (*TradeDetail, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	detail := &TradeDetail{
		Trade:    trade,
		Messages: []*model.TradeMessage{},
		Meetings: []*model.TradeMeetingProposal{},
	}
	if !trade.IsParticipant(userID) {
		return detail, nil
	}

	messages, err := s.messageRepo.ListForTradeIDs(ctx, []uint64{tradeID})
	if err != nil {
		return nil, err
	}
	meetings, err := s.meetingRepo.ListForTradeIDs(ctx, []uint64{tradeID})
	if err != nil {
		return nil, err
	}
	detail.Messages = messages
	detail.Meetings = meetings
	return detail, nil
}

// ListMine lists trades the user participates in
func (s *tradeService) ListMine(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	return s.tradeRepo.ListForUser(ctx, userID)
}

// ListBrowse lists open trades from other users
func (s *tradeService) ListBrowse(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	return s.tradeRepo.ListOpenForOthers(ctx, userID)
}

// ListAll lists every trade
func (s *tradeService) ListAll(ctx context.Context) ([]*model.Trade, error) {
	return s.tradeRepo.ListAll(ctx)
}
