package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/mindmap"
	"github.com/m-mizutani/intellica/pkg/model"
	"github.com/m-mizutani/intellica/pkg/usecase/chat"
	"github.com/m-mizutani/intellica/pkg/usecase/export"
	"github.com/m-mizutani/intellica/pkg/utils/logging"
)

var starterPrompts = []string{
	"Latest breakthroughs in Quantum Computing?",
	"What is the current state of AGI development?",
	"New developments in Solid-State Batteries",
	"Update on SpaceX Starship launch schedule",
}

const helpText = `Commands:
  <text>                      send a query to the agent
  /ask <n>                    send suggestion n of the last answer (starter prompt n on an empty chat)
  /messages                   show the active conversation
  /up [n], /down [n]          rate message n (default: last answer), again to clear
  /mindmap [n]                show the mind map of message n (default: last answer)
  /new                        archive this chat and start a new one
  /history [term]             list archived chats, optionally filtered
  /load <n>                   open archived chat n of the last listing
  /delete <n>                 delete archived chat n of the last listing
  /clear                      delete all archived chats
  /export [file|clipboard|storage]          export this chat
  /export-history [json|yaml] [file|storage] export all archived chats
  /report [file|storage]      generate a PDF report of this chat
  /critical, /dark, /memory   toggle a setting
  /settings                   show settings
  /help                       show this help
  /exit                       quit`

type replInput struct {
	Session  *chat.Session
	Exporter *export.UseCase
	Markdown *adapter.Markdown
	Out      io.Writer
	Confirm  func(question string) bool
}

// repl dispatches one input line at a time against a chat session
type repl struct {
	session  *chat.Session
	exporter *export.UseCase
	markdown *adapter.Markdown
	out      io.Writer
	confirm  func(question string) bool

	listed []*model.ArchivedSession
	topics []string
}

func newREPL(input replInput) *repl {
	r := &repl{
		session:  input.Session,
		exporter: input.Exporter,
		markdown: input.Markdown,
		out:      input.Out,
		confirm:  input.Confirm,
	}
	if r.exporter == nil {
		r.exporter = export.New()
	}
	if r.confirm == nil {
		r.confirm = func(string) bool { return false }
	}
	return r
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// greet prints the starter prompts of an empty chat
func (r *repl) greet() {
	r.topics = starterPrompts
	r.printf("What's on your mind today?\n")
	for i, p := range starterPrompts {
		r.printf("  %d. %s\n", i+1, p)
	}
	r.printf("Type a question, /ask <n> to use a prompt above, or /help.\n")
}

// handle runs one input line. It returns true when the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.submit(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/exit", "/quit":
		return true
	case "/help":
		r.printf("%s\n", helpText)
	case "/ask":
		r.ask(ctx, args)
	case "/messages":
		r.showMessages()
	case "/up", "/down":
		value, err := model.ParseFeedback(strings.TrimPrefix(cmd, "/"))
		if err != nil {
			return false
		}
		r.rate(ctx, args, value)
	case "/mindmap":
		r.showMindMap(args)
	case "/new":
		r.session.StartNew(ctx)
		r.printf("Started a new chat.\n")
		r.greet()
	case "/history":
		r.showHistory(strings.Join(args, " "))
	case "/load":
		r.load(ctx, args)
	case "/delete":
		r.remove(args)
	case "/clear":
		r.clearAll()
	case "/export":
		r.exportChat(ctx, args)
	case "/export-history":
		r.exportHistory(ctx, args)
	case "/report":
		r.report(ctx, args)
	case "/critical":
		r.printf("Critical mode: %s\n", onOff(r.session.Settings().ToggleCriticalMode()))
	case "/dark":
		r.printf("Dark mode: %s\n", onOff(r.session.Settings().ToggleDarkMode()))
	case "/memory":
		r.printf("Memory: %s\n", onOff(r.session.Settings().ToggleMemory()))
	case "/settings":
		r.showSettings()
	default:
		r.printf("Unknown command %q. Type /help for commands.\n", cmd)
	}
	return false
}

func (r *repl) submit(ctx context.Context, text string) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
	s.Suffix = " Researching..."
	s.Start()
	reply, err := r.session.Submit(ctx, text)
	s.Stop()

	switch {
	case errors.Is(err, chat.ErrEmptyQuery):
		return
	case errors.Is(err, chat.ErrBusy):
		r.printf("Still waiting for the previous answer.\n")
		return
	case err != nil:
		logging.From(ctx).Error("failed to submit query", "error", err)
		return
	}

	r.printAgent(ctx, reply)
}

func (r *repl) printAgent(ctx context.Context, msg *model.Message) {
	r.printf("%s\n", r.render(ctx, msg.Content))

	if len(msg.Sources) > 0 {
		r.printf("Sources:\n")
		for _, src := range msg.Sources {
			r.printf("  - %s: %s\n", src.Origin, src.Content)
		}
	}

	r.topics = msg.Suggestions
	if len(msg.Suggestions) > 0 {
		r.printf("Related topics:\n")
		for i, s := range msg.Suggestions {
			r.printf("  %d. %s\n", i+1, s)
		}
	}
}

func (r *repl) render(ctx context.Context, text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text, r.session.Settings().DarkMode())
	if err != nil {
		logging.From(ctx).Warn("failed to render markdown", "error", err)
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (r *repl) ask(ctx context.Context, args []string) {
	n, ok := r.index(args, len(r.topics))
	if !ok {
		r.printf("Usage: /ask <n> with n between 1 and %d\n", len(r.topics))
		return
	}
	topic := r.topics[n]
	r.printf("> %s\n", topic)
	r.submit(ctx, topic)
}

func (r *repl) showMessages() {
	msgs := r.session.Messages()
	if len(msgs) == 0 {
		r.printf("No messages yet.\n")
		return
	}
	for i, msg := range msgs {
		mark := ""
		switch msg.Feedback {
		case model.FeedbackPositive:
			mark = " [+]"
		case model.FeedbackNegative:
			mark = " [-]"
		}
		r.printf("[%d] %s%s: %s\n", i+1, msg.Role, mark, msg.Content)
	}
}

// target resolves an optional 1-based message number, defaulting to the last agent message
func (r *repl) target(args []string) *model.Message {
	if len(args) == 0 {
		return r.session.LastAgentMessage()
	}
	msgs := r.session.Messages()
	n, ok := r.index(args, len(msgs))
	if !ok {
		return nil
	}
	return msgs[n]
}

func (r *repl) rate(ctx context.Context, args []string, value model.Feedback) {
	msg := r.target(args)
	if msg == nil {
		r.printf("No message to rate.\n")
		return
	}
	next, ok := r.session.Feedback(ctx, msg.ID, value)
	if !ok {
		r.printf("This message cannot be rated.\n")
		return
	}
	switch next {
	case model.FeedbackPositive:
		r.printf("Marked as helpful.\n")
	case model.FeedbackNegative:
		r.printf("Marked as not helpful.\n")
	default:
		r.printf("Rating cleared.\n")
	}
}

func (r *repl) showMindMap(args []string) {
	msg := r.target(args)
	if msg == nil {
		r.printf("No answer to map yet.\n")
		return
	}
	m := mindmap.ForMessage(msg)
	if err := m.Render(r.out); err != nil {
		return
	}
	if len(msg.Suggestions) > 0 {
		r.topics = msg.Suggestions
	}
}

func (r *repl) showHistory(term string) {
	r.listed = r.session.Archive().Search(term)
	if len(r.listed) == 0 {
		r.printf("No archived chats.\n")
		return
	}
	for i, s := range r.listed {
		r.printf("  %d. %s  (%d messages, %s)\n", i+1, s.Title, len(s.Messages), s.ArchivedAt.Format(time.DateTime))
	}
}

func (r *repl) listedAt(args []string) *model.ArchivedSession {
	n, ok := r.index(args, len(r.listed))
	if !ok {
		return nil
	}
	return r.listed[n]
}

func (r *repl) load(ctx context.Context, args []string) {
	target := r.listedAt(args)
	if target == nil {
		r.printf("Usage: /load <n> with a number from /history\n")
		return
	}
	if !r.session.Load(ctx, target.ID) {
		r.printf("Chat %q is no longer archived.\n", target.Title)
		return
	}
	r.listed = nil
	r.printf("Loaded %q.\n", target.Title)
	r.showMessages()
	if last := r.session.LastAgentMessage(); last != nil {
		r.topics = last.Suggestions
	}
}

func (r *repl) remove(args []string) {
	target := r.listedAt(args)
	if target == nil {
		r.printf("Usage: /delete <n> with a number from /history\n")
		return
	}
	r.session.Archive().Remove(target.ID)
	r.listed = nil
	r.printf("Deleted %q.\n", target.Title)
}

func (r *repl) clearAll() {
	if !r.confirm("Are you sure you want to delete all chat history?") {
		r.printf("Canceled.\n")
		return
	}
	r.session.Archive().Clear()
	r.listed = nil
	r.printf("All chat history deleted.\n")
}

func (r *repl) exportChat(ctx context.Context, args []string) {
	dest := export.DestinationFile
	if len(args) > 0 {
		dest = export.Destination(args[0])
	}
	where, err := r.exporter.Chat(ctx, r.session.Messages(), dest)
	if err != nil {
		r.notice(ctx, "Failed to export chat.", err)
		return
	}
	r.printf("Chat exported to %s\n", where)
}

func (r *repl) exportHistory(ctx context.Context, args []string) {
	format, dest := export.FormatJSON, export.DestinationFile
	if len(args) > 0 {
		format = export.Format(args[0])
	}
	if len(args) > 1 {
		dest = export.Destination(args[1])
	}
	where, err := r.exporter.History(ctx, r.session.Archive().List(), format, dest)
	if err != nil {
		r.notice(ctx, "Failed to export history.", err)
		return
	}
	r.printf("History exported to %s\n", where)
}

func (r *repl) report(ctx context.Context, args []string) {
	dest := export.DestinationFile
	if len(args) > 0 {
		dest = export.Destination(args[0])
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
	s.Suffix = " Generating report..."
	s.Start()
	pdf, err := r.session.GenerateReport(ctx)
	s.Stop()
	if err != nil {
		r.notice(ctx, "Failed to generate report.", err)
		return
	}

	where, err := r.exporter.Report(ctx, pdf, dest)
	if err != nil {
		r.notice(ctx, "Failed to save report.", err)
		return
	}
	r.printf("Report saved to %s\n", where)
}

func (r *repl) showSettings() {
	settings := r.session.Settings()
	r.printf("Dark mode:     %s\n", onOff(settings.DarkMode()))
	r.printf("Critical mode: %s\n", onOff(settings.CriticalMode()))
	r.printf("Memory:        %s\n", onOff(settings.MemoryEnabled()))
}

func (r *repl) notice(ctx context.Context, msg string, err error) {
	logging.From(ctx).Error(msg, "error", err)
	r.printf("%s\n", msg)
}

// index parses the first argument as a 1-based number in [1, size] and returns it 0-based
func (r *repl) index(args []string, size int) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > size {
		return 0, false
	}
	return n - 1, true
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
