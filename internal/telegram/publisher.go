package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
	"github.com/cintamani/seedgen/internal/report"
)

const maxMessageLength = 4096

// sender is the part of tgbotapi.BotAPI the publisher needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Publisher posts seed lists to a Telegram channel
type Publisher struct {
	api    sender
	chat   chatTarget
	logger logger.Logger
}

// chatTarget is either a numeric chat ID or a channel username
type chatTarget struct {
	id       int64
	username string
}

func (c chatTarget) String() string {
	if c.username != "" {
		return c.username
	}
	return strconv.FormatInt(c.id, 10)
}

// NewPublisher authorizes the bot token and targets channel
func NewPublisher(token, channel string, log logger.Logger) (*Publisher, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if channel == "" {
		return nil, fmt.Errorf("telegram channel is empty")
	}
	if log == nil {
		log = logger.NewTestLogger()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API client: %w", err)
	}

	log.Info().
		Str("bot", api.Self.UserName).
		Int64("bot_id", api.Self.ID).
		Msg("authorized Telegram bot")

	return newPublisher(api, channel, log), nil
}

func newPublisher(api sender, channel string, log logger.Logger) *Publisher {
	return &Publisher{
		api:    api,
		chat:   parseChatTarget(channel),
		logger: log.WithComponent("telegram"),
	}
}

// NormalizeChannelID turns t.me/name and bare names into @name and leaves
// numeric chat IDs alone
func NormalizeChannelID(channel string) string {
	channel = strings.TrimSpace(channel)
	channel = strings.TrimPrefix(channel, "https://")
	if strings.HasPrefix(channel, "t.me/") {
		channel = "@" + strings.TrimPrefix(channel, "t.me/")
	}
	if channel == "" {
		return ""
	}
	if !strings.HasPrefix(channel, "@") && !strings.HasPrefix(channel, "-") {
		if _, err := strconv.ParseInt(channel, 10, 64); err != nil {
			channel = "@" + channel
		}
	}
	return channel
}

func parseChatTarget(channel string) chatTarget {
	channel = NormalizeChannelID(channel)
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return chatTarget{id: id}
	}
	return chatTarget{username: channel}
}

// Publish sends the run summary, the rendered list as a document and, when
// present, the ASN chart
func (p *Publisher) Publish(ctx context.Context, result *models.SelectionResult, list []byte, filename string, chart []byte) error {
	for _, chunk := range SplitMessage(report.Summary(result), maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.sendText(chunk); err != nil {
			return err
		}
	}

	if len(list) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		caption := fmt.Sprintf("%d seeds for %s", len(result.Seeds), result.Network)
		if err := p.sendDocument(filename, list, caption); err != nil {
			return err
		}
	}

	if len(chart) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.sendPhoto("seeds_per_asn.png", chart, "Seeds per ASN"); err != nil {
			return err
		}
	}

	p.logger.Info().
		Str("chat", p.chat.String()).
		Str("run_id", result.RunID).
		Int("seeds", len(result.Seeds)).
		Msg("published seed list")

	return nil
}

// Notify sends a plain Markdown message, e.g. a failure notice
func (p *Publisher) Notify(text string) error {
	for _, chunk := range SplitMessage(text, maxMessageLength) {
		if err := p.sendText(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) sendText(text string) error {
	var msg tgbotapi.MessageConfig
	if p.chat.username != "" {
		msg = tgbotapi.NewMessageToChannel(p.chat.username, text)
	} else {
		msg = tgbotapi.NewMessage(p.chat.id, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown

	sent, err := p.api.Send(msg)
	if err != nil {
		p.logger.Error().
			Str("chat", p.chat.String()).
			Err(err).
			Msg("failed to send message; make sure the bot is an administrator of the channel with 'Post messages' permission")
		return fmt.Errorf("send message to %s: %w", p.chat, err)
	}

	p.logger.Debug().Int("message_id", sent.MessageID).Msg("sent message")
	return nil
}

func (p *Publisher) sendDocument(name string, data []byte, caption string) error {
	file := tgbotapi.FileBytes{Name: name, Bytes: data}

	var doc tgbotapi.DocumentConfig
	if p.chat.username != "" {
		doc = tgbotapi.DocumentConfig{
			BaseFile: tgbotapi.BaseFile{
				BaseChat: tgbotapi.BaseChat{ChannelUsername: p.chat.username},
				File:     file,
			},
		}
	} else {
		doc = tgbotapi.NewDocument(p.chat.id, file)
	}
	doc.Caption = caption

	if _, err := p.api.Send(doc); err != nil {
		return fmt.Errorf("send document to %s: %w", p.chat, err)
	}
	return nil
}

func (p *Publisher) sendPhoto(name string, data []byte, caption string) error {
	file := tgbotapi.FileBytes{Name: name, Bytes: data}

	var photo tgbotapi.PhotoConfig
	if p.chat.username != "" {
		photo = tgbotapi.NewPhotoToChannel(p.chat.username, file)
	} else {
		photo = tgbotapi.NewPhoto(p.chat.id, file)
	}
	photo.Caption = caption

	if _, err := p.api.Send(photo); err != nil {
		return fmt.Errorf("send chart to %s: %w", p.chat, err)
	}
	return nil
}

// SplitMessage breaks text into chunks of at most limit bytes on line
// boundaries. Lines longer than limit are cut.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSuffix(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			flush()
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return chunks
}
