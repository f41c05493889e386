// Package bot is the Telegram front end: command routing, chat with reply
// context, photo descriptions and the user allow-list.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/generative-ai-go/genai"

	"github.com/flintbot/flint/internal/config"
	"github.com/flintbot/flint/internal/diary"
	"github.com/flintbot/flint/internal/journal"
	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/logging"
	"github.com/flintbot/flint/internal/mcp"
	"github.com/flintbot/flint/internal/rag"
)

// maxReplyDepth bounds how far up a reply chain chat context is collected.
const maxReplyDepth = 10

// Describer turns an image into text. Implemented by llm.Gemini.
type Describer interface {
	Describe(ctx context.Context, data []byte, format, prompt string) (string, error)
}

// Bot runs the Telegram update loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Settings
	gen     llm.Generator
	vision  Describer
	runner  *mcp.Runner
	diary   *diary.Orchestrator
	rag     *rag.Engine
	journal *journal.Journal

	startedAt time.Time
}

// New connects to Telegram and wires the bot. rag may be nil when no RAG
// folders are configured.
func New(cfg *config.Settings, gen llm.Generator, vision Describer, runner *mcp.Runner,
	diaryOrch *diary.Orchestrator, ragEngine *rag.Engine, jnl *journal.Journal) (*Bot, error) {

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	logging.Info("bot", "Authorized as @%s", api.Self.UserName)

	return &Bot{
		api:       api,
		cfg:       cfg,
		gen:       gen,
		vision:    vision,
		runner:    runner,
		diary:     diaryOrch,
		rag:       ragEngine,
		journal:   jnl,
		startedAt: time.Now(),
	}, nil
}

// Run polls for updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}
	if !allowed(b.cfg.AllowedUsers, username) {
		logging.Info("bot", "Ignoring message from @%s", username)
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := msg.CommandArguments()
	logging.Info("bot", "Command /%s", cmd)

	switch cmd {
	case "diary":
		b.runDiary(ctx, msg)
	case "list_mcps":
		b.listTools(msg)
	case "rag":
		b.answerRAG(ctx, msg, args)
	case "status":
		b.reply(msg, b.statusReport())
	default:
		b.runTool(ctx, msg, cmd, args)
	}
}

func (b *Bot) runDiary(ctx context.Context, msg *tgbotapi.Message) {
	res, err := b.diary.Run(ctx, diary.Options{})
	b.recordRun(journal.KindDiary, string(res.Outcome), err)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Diary failed: %v", err))
		return
	}
	b.reply(msg, fmt.Sprintf("Diary written to %s", res.Path))
}

func (b *Bot) listTools(msg *tgbotapi.Message) {
	if err := b.runner.Registry().Reload(); err != nil {
		b.reply(msg, fmt.Sprintf("Could not load tool config: %v", err))
		return
	}
	entries := b.runner.Registry().Enabled()
	if len(entries) == 0 {
		b.reply(msg, "No tool servers configured.")
		return
	}
	var lines []string
	for name, d := range entries {
		line := fmt.Sprintf("/%s (%s)", name, d.Kind)
		if desc := d.Metadata["description"]; desc != "" {
			line += " - " + desc
		}
		lines = append(lines, line)
	}
	b.reply(msg, "Available tools:\n"+strings.Join(lines, "\n"))
}

func (b *Bot) answerRAG(ctx context.Context, msg *tgbotapi.Message, question string) {
	if b.rag == nil {
		b.reply(msg, "RAG is not configured.")
		return
	}
	if strings.TrimSpace(question) == "" {
		b.reply(msg, "Usage: /rag <question>")
		return
	}
	answer, err := b.rag.Answer(ctx, question, 5)
	if err != nil {
		b.reply(msg, fmt.Sprintf("RAG failed: %v", err))
		return
	}
	b.replyMarkdown(msg, answer)
}

// runTool treats any other command as a tool server name and sends the
// arguments as the prompt.
func (b *Bot) runTool(ctx context.Context, msg *tgbotapi.Message, name, prompt string) {
	if strings.TrimSpace(prompt) == "" {
		prompt = "Summarize the current state."
	}
	out, err := b.runner.Invoke(ctx, name, prompt)
	if err != nil {
		if mcp.IsToolError(err) {
			b.reply(msg, fmt.Sprintf("Tool /%s failed: %v", name, err))
		} else {
			b.reply(msg, fmt.Sprintf("Error: %v", err))
		}
		return
	}
	b.replyMarkdown(msg, out)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	contents := historyFromReplyChain(msg, b.api.Self.ID)

	resp, err := b.gen.Generate(ctx, llm.Request{
		Contents:          contents,
		SystemInstruction: b.cfg.SystemInstructions,
	})
	if err != nil {
		logging.Error("bot", "chat generation: %v", err)
		b.reply(msg, "Something went wrong, try again.")
		return
	}
	text := strings.TrimSpace(llm.ResponseText(resp))
	if text == "" {
		b.reply(msg, "I have nothing to say to that.")
		return
	}
	b.replyMarkdown(msg, text)
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	photo := largestPhoto(msg.Photo)
	url, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		logging.Error("bot", "photo url: %v", err)
		b.reply(msg, "Could not fetch the photo.")
		return
	}

	resp, err := http.Get(url)
	if err != nil {
		logging.Error("bot", "photo download: %v", err)
		b.reply(msg, "Could not download the photo.")
		return
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Error("bot", "photo read: %v", err)
		b.reply(msg, "Could not read the photo.")
		return
	}

	description, err := b.vision.Describe(ctx, data, "jpeg", "Describe this image in one short sentence.")
	if err != nil {
		logging.Error("bot", "photo describe: %v", err)
		b.reply(msg, "Could not describe the photo.")
		return
	}
	b.reply(msg, description)
}

// SendMarkdown sends a message to the configured chat, used by scheduled
// jobs rather than replies.
func (b *Bot) SendMarkdown(text string) error {
	m := tgbotapi.NewMessage(b.cfg.TelegramChatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(m)
	return err
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(m); err != nil {
		logging.Error("bot", "send: %v", err)
	}
}

// replyMarkdown sends generated content as markdown and falls back to
// plain text when Telegram rejects the formatting.
func (b *Bot) replyMarkdown(msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		logging.Debug("bot", "markdown send failed, retrying plain: %v", err)
		b.reply(msg, text)
	}
}

func (b *Bot) recordRun(kind journal.Kind, outcome string, runErr error) {
	if b.journal == nil {
		return
	}
	entry := journal.Entry{Kind: kind, Outcome: outcome}
	if runErr != nil {
		entry.Detail = runErr.Error()
	}
	if err := b.journal.Record(entry); err != nil {
		logging.Error("bot", "journal: %v", err)
	}
}

// allowed checks the username against the filter. An empty filter allows
// everyone.
func allowed(filter []string, username string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, u := range filter {
		if strings.EqualFold(u, username) {
			return true
		}
	}
	return false
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

// historyFromReplyChain rebuilds chat context by walking the reply chain,
// oldest first. Telegram only populates one reply hop per update, so depth
// is whatever the payload carries, capped at maxReplyDepth.
func historyFromReplyChain(msg *tgbotapi.Message, selfID int64) []*genai.Content {
	var chain []*tgbotapi.Message
	for m := msg; m != nil && len(chain) < maxReplyDepth; m = m.ReplyToMessage {
		chain = append(chain, m)
	}

	contents := make([]*genai.Content, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		m := chain[i]
		if m.Text == "" {
			continue
		}
		role := "user"
		if m.From != nil && m.From.ID == selfID {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return contents
}
