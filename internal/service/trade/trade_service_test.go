package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardmarket/internal/event"
	"cardmarket/internal/model"
	"cardmarket/pkg/queue"
	"cardmarket/pkg/utils"
)

// In-memory fakes for every repository the service touches. Conditional
// transitions behave like the SQL versions: they check the expected prior
// state and report whether the write landed.

type fakeTradeRepo struct {
	mu     sync.Mutex
	trades map[uint64]*model.Trade
	nextID uint64
}

func newFakeTradeRepo() *fakeTradeRepo {
	return &fakeTradeRepo{trades: map[uint64]*model.Trade{}}
}

func (f *fakeTradeRepo) Create(ctx context.Context, trade *model.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	trade.ID = f.nextID
	trade.CreatedAt = time.Now()
	copied := *trade
	f.trades[trade.ID] = &copied
	return nil
}

func (f *fakeTradeRepo) GetByID(ctx context.Context, id uint64) (*model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trade, ok := f.trades[id]
	if !ok {
		return nil, utils.NotFoundf("trade not found")
	}
	copied := *trade
	return &copied, nil
}

func (f *fakeTradeRepo) ListForUser(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Trade
	for _, t := range f.trades {
		if t.InitiatorID == userID || (t.ResponderID != nil && *t.ResponderID == userID) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTradeRepo) ListOpenForOthers(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Trade
	for _, t := range f.trades {
		if t.Status == model.TradeStatusOpen && t.ResponderID == nil && t.InitiatorID != userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTradeRepo) ListAll(ctx context.Context) ([]*model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Trade
	for _, t := range f.trades {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeTradeRepo) Offer(ctx context.Context, tradeID, responderID, responderProductID uint64, note *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trade, ok := f.trades[tradeID]
	if !ok || trade.Status != model.TradeStatusOpen || trade.ResponderID != nil {
		return false, nil
	}
	trade.ResponderID = &responderID
	trade.ResponderProductID = &responderProductID
	trade.Status = model.TradeStatusPendingInitiator
	if note != nil {
		trade.Note = note
	}
	return true, nil
}

func (f *fakeTradeRepo) UpdateStatusFrom(ctx context.Context, tradeID uint64, expected []string, target string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trade, ok := f.trades[tradeID]
	if !ok {
		return false, nil
	}
	for _, status := range expected {
		if trade.Status == status {
			trade.Status = target
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTradeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.trades)), nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*model.TradeMessage
	nextID   uint64
}

func (f *fakeMessageRepo) Add(ctx context.Context, message *model.TradeMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	message.ID = f.nextID
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TradeMessage
	for _, m := range f.messages {
		for _, id := range tradeIDs {
			if m.TradeID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

type fakeMeetingRepo struct {
	mu        sync.Mutex
	proposals map[uint64]*model.TradeMeetingProposal
	nextID    uint64
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{proposals: map[uint64]*model.TradeMeetingProposal{}}
}

func (f *fakeMeetingRepo) Propose(ctx context.Context, proposal *model.TradeMeetingProposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	proposal.ID = f.nextID
	proposal.Status = model.ProposalStatusProposed
	proposal.CreatedAt = time.Now()
	copied := *proposal
	f.proposals[proposal.ID] = &copied
	return nil
}

func (f *fakeMeetingRepo) GetByID(ctx context.Context, id uint64) (*model.TradeMeetingProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[id]
	if !ok {
		return nil, utils.NotFoundf("meeting proposal not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakeMeetingRepo) ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMeetingProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TradeMeetingProposal
	for _, p := range f.proposals {
		for _, id := range tradeIDs {
			if p.TradeID == id {
				copied := *p
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (f *fakeMeetingRepo) Respond(ctx context.Context, proposalID, responderID uint64, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[proposalID]
	if !ok || p.Status != model.ProposalStatusProposed {
		return false, nil
	}
	now := time.Now()
	p.Status = status
	p.RespondedBy = &responderID
	p.RespondedAt = &now
	return true, nil
}

type fakeProductRepo struct {
	products map[uint64]*model.Product
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, utils.NotFoundf("product not found")
	}
	return p, nil
}
func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id uint64) error        { return nil }
func (f *fakeProductRepo) List(ctx context.Context) ([]*model.Product, error) { return nil, nil }
func (f *fakeProductRepo) Count(ctx context.Context) (int64, error)           { return 0, nil }

type fakeUserRepo struct {
	users map[uint64]*model.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, utils.NotFoundf("user not found")
	}
	return u, nil
}
func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, utils.NotFoundf("user not found")
}
func (f *fakeUserRepo) List(ctx context.Context) ([]*model.User, error) { return nil, nil }
func (f *fakeUserRepo) Count(ctx context.Context) (int64, error)        { return 0, nil }

type fixture struct {
	svc    TradeService
	trades *fakeTradeRepo
	bus    *queue.MemoryQueue
	events chan *event.TradeEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bus, err := queue.NewMemoryQueue(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	events := make(chan *event.TradeEvent, 32)
	err = bus.Subscribe(context.Background(), event.TopicTrades, func(ctx context.Context, topic string, message []byte) error {
		ev, err := event.Decode(message)
		if err != nil {
			return err
		}
		events <- ev
		return nil
	})
	require.NoError(t, err)

	trades := newFakeTradeRepo()
	products := &fakeProductRepo{products: map[uint64]*model.Product{
		10: {ID: 10, ProductName: "Charizard", Price: 100},
		20: {ID: 20, ProductName: "Blastoise", Price: 80},
	}}
	users := &fakeUserRepo{users: map[uint64]*model.User{
		1: {ID: 1, Username: "ash"},
		2: {ID: 2, Username: "misty"},
		3: {ID: 3, Username: "brock"},
	}}

	svc := NewTradeService(trades, &fakeMessageRepo{}, newFakeMeetingRepo(), products, users, bus)
	return &fixture{svc: svc, trades: trades, bus: bus, events: events}
}

func (f *fixture) waitEvent(t *testing.T, eventType string) *event.TradeEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.events:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %s", eventType)
			return nil
		}
	}
}

// acceptedTrade drives a trade through create, offer and accept
func (f *fixture) acceptedTrade(t *testing.T) *model.Trade {
	t.Helper()
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)
	_, err = f.svc.Offer(ctx, trade.ID, 2, 20, nil)
	require.NoError(t, err)
	trade, err = f.svc.Accept(ctx, trade.ID, 1)
	require.NoError(t, err)
	require.Equal(t, model.TradeStatusAccepted, trade.Status)
	return trade
}

func TestTrade_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusOpen, trade.Status)
	assert.Nil(t, trade.ResponderID)

	created := f.waitEvent(t, event.TypeTradeCreated)
	assert.Equal(t, "ash", created.ActorName)
	assert.Equal(t, "Charizard", created.CardName)

	trade, err = f.svc.Offer(ctx, trade.ID, 2, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusPendingInitiator, trade.Status)
	require.NotNil(t, trade.ResponderID)
	assert.Equal(t, uint64(2), *trade.ResponderID)

	offer := f.waitEvent(t, event.TypeTradeOffer)
	require.NotNil(t, offer.OtherID)
	assert.Equal(t, uint64(1), *offer.OtherID)

	trade, err = f.svc.Accept(ctx, trade.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusAccepted, trade.Status)

	accepted := f.waitEvent(t, event.TypeTradeAccepted)
	require.NotNil(t, accepted.OtherID)
	assert.Equal(t, uint64(2), *accepted.OtherID)
}

func TestTrade_CannotOfferOnOwnTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)

	_, err = f.svc.Offer(ctx, trade.ID, 1, 20, nil)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeInvalidParam, appErr.Code)
}

func TestTrade_SecondOfferLoses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)

	_, err = f.svc.Offer(ctx, trade.ID, 2, 20, nil)
	require.NoError(t, err)

	_, err = f.svc.Offer(ctx, trade.ID, 3, 20, nil)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "no longer available")
}

func TestTrade_OnlyInitiatorResolves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)
	_, err = f.svc.Offer(ctx, trade.ID, 2, 20, nil)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, trade.ID, 2)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeForbidden, appErr.Code)

	_, err = f.svc.Decline(ctx, trade.ID, 2)
	require.Error(t, err)
}

func TestTrade_ResolveRequiresPendingOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, trade.ID, 1)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)
}

func TestTrade_CancelFromOpenAndPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Cancel while still open.
	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)
	trade, err = f.svc.Cancel(ctx, trade.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusCancelled, trade.Status)

	// Cancel after an offer arrived.
	trade, err = f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)
	_, err = f.svc.Offer(ctx, trade.ID, 2, 20, nil)
	require.NoError(t, err)
	trade, err = f.svc.Cancel(ctx, trade.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusCancelled, trade.Status)

	cancelled := f.waitEvent(t, event.TypeTradeCancelled)
	require.NotNil(t, cancelled.OtherID)
	assert.Equal(t, uint64(2), *cancelled.OtherID)

	// Resolved trades stay resolved.
	_, err = f.svc.Cancel(ctx, trade.ID, 1)
	require.Error(t, err)
}

func TestTrade_CancelAfterAcceptIsConflict(t *testing.T) {
	f := newFixture(t)
	trade := f.acceptedTrade(t)

	_, err := f.svc.Cancel(context.Background(), trade.ID, 1)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)
}

func TestChat_RequiresAcceptedTradeAndParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trade, err := f.svc.Create(ctx, 1, 10, nil)
	require.NoError(t, err)

	// Not accepted yet.
	_, err = f.svc.PostMessage(ctx, trade.ID, 1, "hello")
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)

	accepted := f.acceptedTrade(t)

	// Outsider.
	_, err = f.svc.PostMessage(ctx, accepted.ID, 3, "let me in")
	require.Error(t, err)
	appErr, ok = utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeForbidden, appErr.Code)

	// Participant on the accepted trade.
	msg, err := f.svc.PostMessage(ctx, accepted.ID, 2, "  see you at the shop  ")
	require.NoError(t, err)
	assert.Equal(t, "see you at the shop", msg.Message)

	posted := f.waitEvent(t, event.TypeMessagePosted)
	require.NotNil(t, posted.OtherID)
	assert.Equal(t, uint64(1), *posted.OtherID)
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	trade := f.acceptedTrade(t)

	_, err := f.svc.PostMessage(context.Background(), trade.ID, 1, "   ")
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeInvalidParam, appErr.Code)
}

func TestMeeting_ProposeAndRespond(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trade := f.acceptedTrade(t)

	proposal, err := f.svc.ProposeMeeting(ctx, trade.ID, 1, "2026-09-01T15:30")
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusProposed, proposal.Status)
	assert.Equal(t, time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC), proposal.ProposedAt)

	// Proposer cannot answer their own proposal.
	_, err = f.svc.RespondMeeting(ctx, trade.ID, proposal.ID, 1, true)
	require.Error(t, err)

	resolved, err := f.svc.RespondMeeting(ctx, trade.ID, proposal.ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusAccepted, resolved.Status)
	require.NotNil(t, resolved.RespondedBy)
	assert.Equal(t, uint64(2), *resolved.RespondedBy)

	responded := f.waitEvent(t, event.TypeMeetingResponded)
	assert.True(t, responded.Accepted)

	// Second response loses.
	_, err = f.svc.RespondMeeting(ctx, trade.ID, proposal.ID, 2, false)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)
}

func TestMeeting_RejectsBadTimeAndForeignProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.acceptedTrade(t)

	_, err := f.svc.ProposeMeeting(ctx, first.ID, 1, "next tuesday")
	require.Error(t, err)

	proposal, err := f.svc.ProposeMeeting(ctx, first.ID, 1, "2026-09-01T15:30")
	require.NoError(t, err)

	// A second accepted trade cannot answer the first trade's proposal.
	second := f.acceptedTrade(t)
	_, err = f.svc.RespondMeeting(ctx, second.ID, proposal.ID, 2, true)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeNotFound, appErr.Code)
}

func TestGet_HidesHistoryFromOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trade := f.acceptedTrade(t)

	_, err := f.svc.PostMessage(ctx, trade.ID, 1, "hello")
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, trade.ID, 1)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 1)

	outsider, err := f.svc.Get(ctx, trade.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, outsider.Messages)
}
