package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"petalboard/internal/form"
	"petalboard/internal/mirror"
	"petalboard/internal/models"
	"petalboard/internal/notify"
	"petalboard/internal/session"
	"petalboard/internal/store"
)

const BoardCtlVersion = "0.1.0"

func main() {
	usage := `Petalboard control.

Usage:
    boardctl posts watch [--server=<url>]
    boardctl posts add <message> [--author=<author>] [--server=<url>]
    boardctl posts edit <id> <message> [--server=<url>]
    boardctl posts delete <id> [--yes] [--server=<url>]
    boardctl contacts watch [--server=<url>]
    boardctl contacts add --name=<name> --phone=<phone> --email=<email> [--server=<url>]
    boardctl contacts edit <id> [--name=<name>] [--phone=<phone>] [--email=<email>] [--server=<url>]
    boardctl contacts delete <id> [--yes] [--server=<url>]
    boardctl products [--server=<url>]
    boardctl register <email> <password> [--server=<url>]
    boardctl login <email> <password> [--server=<url>]
    boardctl reset-request <email> [--server=<url>]
    boardctl whoami [--server=<url>]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --server=<url>       Server base URL [default: http://localhost:8080].
    --author=<author>    Post author (blank publishes anonymously).
    --name=<name>        Contact name.
    --phone=<phone>      Contact phone.
    --email=<email>      Contact email.
    --yes                Skip the delete confirmation prompt.
    `

	opts, err := docopt.ParseArgs(usage, os.Args[1:], BoardCtlVersion)
	if err != nil {
		panic(err)
	}

	app := newApp(opts)

	switch {
	case isSet(opts, "posts"):
		app.runEntity(opts, models.CollectionPosts)
	case isSet(opts, "contacts"):
		app.runEntity(opts, models.CollectionContacts)
	case isSet(opts, "products"):
		app.products()
	case isSet(opts, "register"):
		app.register(opts)
	case isSet(opts, "login"):
		app.login(opts)
	case isSet(opts, "reset-request"):
		app.resetRequest(opts)
	case isSet(opts, "whoami"):
		app.whoami()
	default:
		docopt.PrintHelpAndExit(nil, usage)
	}
}

type app struct {
	client  *store.Client
	toast   *notify.Emitter
	current *session.CurrentUser
}

func newApp(opts docopt.Opts) *app {
	server, _ := opts.String("--server")
	client := store.NewClient(server)

	// The toast prints as soon as a controller shows it; dismissal is
	// irrelevant for one-shot commands.
	toast := notify.NewEmitter()
	toast.OnChange(func(message string) {
		if message != "" {
			fmt.Println(message)
		}
	})

	a := &app{
		client:  client,
		toast:   toast,
		current: session.NewCurrentUser(),
	}

	// Ambient session: resolve the saved token, if any, before any screen
	// logic runs. Unknown -> signed-in/out, same lifecycle as the SPA.
	if token := os.Getenv("PETALBOARD_TOKEN"); token != "" {
		client.SetToken(token)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		account, err := client.Me(ctx)
		if err != nil {
			a.current.Resolve(nil)
		} else {
			a.current.Resolve(account)
		}
	} else {
		a.current.Resolve(nil)
	}

	return a
}

func (a *app) runEntity(opts docopt.Opts, collection string) {
	switch {
	case isSet(opts, "watch"):
		a.watch(collection)
	case isSet(opts, "add"):
		a.add(opts, collection)
	case isSet(opts, "edit"):
		a.edit(opts, collection)
	case isSet(opts, "delete"):
		a.delete(opts, collection)
	}
}

// watch mirrors the collection to the terminal until interrupted.
func (a *app) watch(collection string) {
	ctx := context.Background()
	col := a.client.Collection(collection)

	list, err := mirror.Open(ctx, func(ctx context.Context) (mirror.Subscription, error) {
		return col.Subscribe(ctx)
	})
	if err != nil {
		fatalf("subscribe: %v", err)
	}
	defer list.Dispose()

	list.OnChange(func() {
		status, reason := list.Status()
		if status == mirror.StatusError {
			fmt.Printf("⚠️  stream lost: %v (list frozen at last value)\n", reason)
			return
		}
		printDocuments(collection, list.Current())
	})

	fmt.Printf("👀 Watching %q (Ctrl-C to stop)...\n", collection)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func (a *app) add(opts docopt.Opts, collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ctrl := a.controller(collection)
	switch collection {
	case models.CollectionPosts:
		message, _ := opts.String("<message>")
		author, _ := opts.String("--author")
		ctrl.SetField(models.FieldMessage, message)
		ctrl.SetField(models.FieldAuthor, author)
	case models.CollectionContacts:
		name, _ := opts.String("--name")
		phone, _ := opts.String("--phone")
		email, _ := opts.String("--email")
		ctrl.SetField(models.FieldName, name)
		ctrl.SetField(models.FieldPhone, phone)
		ctrl.SetField(models.FieldEmail, email)
	}

	if err := ctrl.Submit(ctx); err != nil {
		if verr := ctrl.ValidationError(); verr != nil {
			fatalf("⚠️ Please fill in: %s", strings.Join(verr.MissingFields, ", "))
		}
		os.Exit(1) // write failure already surfaced via the toast
	}
}

func (a *app) edit(opts docopt.Opts, collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, _ := opts.String("<id>")
	col := a.client.Collection(collection)

	doc, ok := a.findDocument(ctx, col, id)
	if !ok {
		fatalf("no document %s in %q", id, collection)
	}

	if collection == models.CollectionPosts {
		// Inline edit of the message, the same single-field path the list
		// rows use.
		registry := form.NewEditRegistry()
		editor := registry.Editor(doc, models.FieldMessage, col, a.toast)
		editor.BeginEdit()
		message, _ := opts.String("<message>")
		editor.SetDraft(message)
		if err := editor.Save(ctx); err != nil {
			os.Exit(1)
		}
		if editor.State() == form.Editing {
			fatalf("⚠️ Nothing to save: the message is empty.")
		}
		return
	}

	// Contacts go through the whole-entity form in edit mode.
	ctrl := a.controller(collection)
	ctrl.BeginEdit(doc)
	for flag, field := range map[string]string{
		"--name":  models.FieldName,
		"--phone": models.FieldPhone,
		"--email": models.FieldEmail,
	} {
		if value, err := opts.String(flag); err == nil && value != "" {
			ctrl.SetField(field, value)
		}
	}
	if err := ctrl.Submit(ctx); err != nil {
		if verr := ctrl.ValidationError(); verr != nil {
			fatalf("⚠️ Please fill in: %s", strings.Join(verr.MissingFields, ", "))
		}
		os.Exit(1)
	}
}

func (a *app) delete(opts docopt.Opts, collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, _ := opts.String("<id>")
	col := a.client.Collection(collection)

	doc, ok := a.findDocument(ctx, col, id)
	if !ok {
		fatalf("no document %s in %q", id, collection)
	}

	skipPrompt, _ := opts.Bool("--yes")
	confirm := func(doc models.Document) bool {
		if skipPrompt {
			return true
		}
		fmt.Printf("Delete %s? This is permanent! 💔 [y/N] ", doc.ID)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}

	issued, err := form.ConfirmedDelete(ctx, col, a.toast, doc, confirm)
	if err != nil {
		os.Exit(1)
	}
	if !issued {
		fmt.Println("Kept it. 🌷")
	}
}

func (a *app) products() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	products, err := a.client.Products(ctx)
	if err != nil {
		fatalf("products: %v", err)
	}

	fmt.Println("🌷 Our Products 🌷")
	for _, p := range products {
		fmt.Printf("  [%d] %s — %s\n      %s\n", p.ID, p.Name, p.Price, p.Tagline)
	}
}

func (a *app) register(opts docopt.Opts) {
	a.signIn(opts, a.client.Register)
}

func (a *app) login(opts docopt.Opts) {
	a.signIn(opts, a.client.Login)
}

func (a *app) signIn(opts docopt.Opts, call func(context.Context, string, string) (*models.Account, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	email, _ := opts.String("<email>")
	password, _ := opts.String("<password>")

	account, err := call(ctx, email, password)
	if err != nil {
		fatalf("%v", err)
	}
	a.current.Resolve(account)

	fmt.Printf("👋 Signed in as %s\n", account.Email)
	fmt.Println("Export the session for the next commands:")
	fmt.Printf("  export PETALBOARD_TOKEN=%s\n", a.client.Token())
}

func (a *app) resetRequest(opts docopt.Opts) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	email, _ := opts.String("<email>")
	if err := a.client.RequestPasswordReset(ctx, email); err != nil {
		fatalf("%v", err)
	}
	fmt.Println("📧 Reset mail requested. Check the inbox.")
}

func (a *app) whoami() {
	state, account := a.current.Get()
	switch state {
	case session.StateSignedIn:
		name := account.DisplayName
		if name == "" {
			name = account.Email
		}
		fmt.Printf("🧑 %s <%s>\n", name, account.Email)
	default:
		fmt.Println("Not signed in.")
	}
}

func (a *app) controller(collection string) *form.Controller {
	col := a.client.Collection(collection)
	if collection == models.CollectionPosts {
		return form.NewController(form.PostSpec(), col, a.toast)
	}
	return form.NewController(form.ContactSpec(), col, a.toast)
}

func (a *app) findDocument(ctx context.Context, col *store.Collection, id string) (models.Document, bool) {
	docs, err := col.List(ctx)
	if err != nil {
		fatalf("list: %v", err)
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return models.Document{}, false
}

func printDocuments(collection string, docs []models.Document) {
	fmt.Printf("--- %s (%d) ---\n", collection, len(docs))
	for _, doc := range docs {
		switch collection {
		case models.CollectionPosts:
			fmt.Printf("  %s  %q — %s\n", doc.ID, doc.Text(models.FieldMessage), doc.Text(models.FieldAuthor))
		case models.CollectionContacts:
			fmt.Printf("  %s  %s  %s  %s\n", doc.ID, doc.Text(models.FieldName), doc.Text(models.FieldPhone), doc.Text(models.FieldEmail))
		default:
			fmt.Printf("  %s  %v\n", doc.ID, doc.Fields)
		}
	}
}

func isSet(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
