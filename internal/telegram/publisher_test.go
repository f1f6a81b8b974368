package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
)

type fakeSender struct {
	sent    []tgbotapi.Chattable
	failAt  int
	failErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.failErr != nil && len(f.sent) == f.failAt {
		return tgbotapi.Message{}, f.failErr
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func testResult() *models.SelectionResult {
	return &models.SelectionResult{
		RunID:     "run1",
		Network:   "main",
		Port:      1993,
		Timestamp: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Seeds: []models.Seed{
			{PeerRecord: models.PeerRecord{Address: "1.2.3.4", AddressValue: 0x01020304}, ASN: 64500},
		},
		Stats: models.SelectionStats{Admitted: 1, DistinctASNs: 1},
	}
}

func TestNormalizeChannelID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "@cintamani_seeds", want: "@cintamani_seeds"},
		{in: "cintamani_seeds", want: "@cintamani_seeds"},
		{in: "t.me/cintamani_seeds", want: "@cintamani_seeds"},
		{in: "https://t.me/cintamani_seeds", want: "@cintamani_seeds"},
		{in: "-1001234567890", want: "-1001234567890"},
		{in: "123456", want: "123456"},
		{in: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeChannelID(tt.in))
		})
	}
}

func TestPublishToChannelUsername(t *testing.T) {
	api := &fakeSender{}
	p := newPublisher(api, "t.me/cintamani_seeds", logger.NewTestLogger())

	err := p.Publish(context.Background(), testResult(), []byte("1.2.3.4\n"), "seeds_main.txt", []byte("\x89PNG"))
	require.NoError(t, err)
	require.Len(t, api.sent, 3)

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "@cintamani_seeds", msg.ChannelUsername)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "Seed list for main")

	doc, ok := api.sent[1].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "@cintamani_seeds", doc.ChannelUsername)
	assert.Equal(t, "1 seeds for main", doc.Caption)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "seeds_main.txt", file.Name)

	photo, ok := api.sent[2].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "@cintamani_seeds", photo.ChannelUsername)
}

func TestPublishToNumericChat(t *testing.T) {
	api := &fakeSender{}
	p := newPublisher(api, "-1001234567890", logger.NewTestLogger())

	require.NoError(t, p.Publish(context.Background(), testResult(), []byte("1.2.3.4\n"), "seeds.txt", nil))
	require.Len(t, api.sent, 2)

	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(-1001234567890), msg.ChatID)
	doc := api.sent[1].(tgbotapi.DocumentConfig)
	assert.Equal(t, int64(-1001234567890), doc.ChatID)
}

func TestPublishStopsOnError(t *testing.T) {
	api := &fakeSender{failAt: 2, failErr: errors.New("Bad Request: not enough rights")}
	p := newPublisher(api, "@seeds", logger.NewTestLogger())

	err := p.Publish(context.Background(), testResult(), []byte("1.2.3.4\n"), "seeds.txt", []byte("png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough rights")
	assert.Len(t, api.sent, 2)
}

func TestPublishHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeSender{}
	p := newPublisher(api, "@seeds", logger.NewTestLogger())

	err := p.Publish(ctx, testResult(), nil, "", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestNewPublisherRequiresCredentials(t *testing.T) {
	_, err := NewPublisher("", "@seeds", nil)
	require.Error(t, err)

	_, err = NewPublisher("123:abc", "", nil)
	require.Error(t, err)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	text := strings.Join([]string{"aaaa", "bbbb", "cccc"}, "\n")
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, SplitMessage(text, 6))
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, SplitMessage(text, 9))

	long := strings.Repeat("x", 25)
	chunks := SplitMessage(long, 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)

	for _, chunk := range SplitMessage(strings.Repeat("line of text\n", 1000), maxMessageLength) {
		assert.LessOrEqual(t, len(chunk), maxMessageLength)
	}
}
