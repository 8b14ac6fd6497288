package bot

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/PriceBox/internal/integrations/shop"
	"github.com/BearBump/PriceBox/internal/integrations/telegram"
	"github.com/BearBump/PriceBox/internal/models"
	"github.com/BearBump/PriceBox/internal/services/subscriptions"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	updates [][]telegram.Update
	i       int

	sent []string
	to   []int64
}

func (a *fakeAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	a.to = append(a.to, chatID)
	a.sent = append(a.sent, text)
	return nil
}

func (a *fakeAPI) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error) {
	if a.i < len(a.updates) {
		u := a.updates[a.i]
		a.i++
		return u, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeRegistrar struct {
	item *models.TrackedItem
	err  error

	refs []string
	subs []int64
}

func (r *fakeRegistrar) Subscribe(ctx context.Context, subscriberID int64, productRef string) (*models.TrackedItem, error) {
	r.subs = append(r.subs, subscriberID)
	r.refs = append(r.refs, productRef)
	if r.err != nil {
		return nil, r.err
	}
	return r.item, nil
}

func msgUpdate(id, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message:  &telegram.Message{MessageID: id, Chat: telegram.Chat{ID: chatID}, Text: text},
	}
}

func TestBot_Commands(t *testing.T) {
	api := &fakeAPI{updates: [][]telegram.Update{{
		msgUpdate(1, 42, "/start"),
		msgUpdate(2, 42, "/help"),
		msgUpdate(3, 42, "/about"),
	}}}
	b := New(api, &fakeRegistrar{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_ = b.Run(ctx)

	require.Len(t, api.sent, 3)
	require.Equal(t, welcomeText, api.sent[0])
	require.Equal(t, helpText, api.sent[1])
	require.Equal(t, aboutText, api.sent[2])
	require.Equal(t, []int64{42, 42, 42}, api.to)
}

func TestBot_LinkSubscribes(t *testing.T) {
	reg := &fakeRegistrar{item: &models.TrackedItem{DisplayName: "Widget", LastPrice: 100.0}}
	api := &fakeAPI{updates: [][]telegram.Update{{
		msgUpdate(1, 42, "https://shop.example/p1"),
	}}}
	b := New(api, reg, time.Second)

	b.handleMessage(context.Background(), api.updates[0][0].Message)

	require.Equal(t, []int64{42}, reg.subs)
	require.Equal(t, []string{"https://shop.example/p1"}, reg.refs)
	require.Len(t, api.sent, 1)
	require.Contains(t, api.sent[0], "✅")
	require.Contains(t, api.sent[0], "Widget")
	require.Contains(t, api.sent[0], "100.00")
}

func TestBot_SubscribeFailureReplies(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{shop.ErrNameNotFound, replyNameNotFound},
		{errors.Wrap(shop.ErrPriceNotFound, "parse \"call us\""), replyPriceNotFound},
		{errors.Wrap(subscriptions.ErrStore, "pg down"), replyStoreFailed},
		{errors.New("connection refused"), replyFetchFailed},
	}
	for _, tc := range cases {
		reg := &fakeRegistrar{err: tc.err}
		api := &fakeAPI{}
		b := New(api, reg, time.Second)

		b.handleLink(context.Background(), 42, "https://shop.example/p1")
		require.Equal(t, []string{tc.want}, api.sent)
	}
}

func TestBot_SkipsNonTextUpdates(t *testing.T) {
	reg := &fakeRegistrar{}
	api := &fakeAPI{updates: [][]telegram.Update{{
		{UpdateID: 1},
		msgUpdate(2, 42, "   "),
	}}}
	b := New(api, reg, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	_ = b.Run(ctx)

	require.Empty(t, reg.refs)
	require.Empty(t, api.sent)
}
