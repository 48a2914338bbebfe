// Command tweetsift-tui is a terminal browser for a converted archive
// index: a table of posts with a detail pane showing text, targets and
// media references.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iconidentify/tweetsift/internal/domain"
	"github.com/iconidentify/tweetsift/internal/index"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const pageSize = 200

type browser struct {
	app    *tview.Application
	store  *index.Store
	table  *tview.Table
	detail *tview.TextView
	status *tview.TextView
	posts  []domain.Post
}

func main() {
	indexPath := flag.String("index", "", "SQLite archive index path (required)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tweetsift-tui %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if *indexPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --index is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	store, err := index.Open(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open index: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	b := newBrowser(store)
	if err := b.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newBrowser(store *index.Store) *browser {
	b := &browser{
		app:   tview.NewApplication(),
		store: store,
	}

	b.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	b.table.SetBorder(true).SetTitle(" Posts ")
	b.table.SetSelectionChangedFunc(func(row, _ int) {
		b.showDetail(row - 1)
	})

	b.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	b.detail.SetBorder(true).SetTitle(" Detail ")

	b.status = tview.NewTextView().SetDynamicColors(true)
	b.status.SetBackgroundColor(tcell.ColorDarkBlue)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(b.table, 0, 3, true).
			AddItem(b.detail, 0, 2, false), 0, 1, true).
		AddItem(b.status, 1, 0, false)

	b.app.SetRoot(layout, true)
	b.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				b.app.Stop()
				return nil
			case 'r':
				b.reload()
				return nil
			}
		case tcell.KeyEscape:
			b.app.Stop()
			return nil
		}
		return event
	})

	return b
}

func (b *browser) run() error {
	b.reload()
	return b.app.Run()
}

func (b *browser) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	posts, err := b.store.ListPosts(ctx, pageSize, 0)
	if err != nil {
		b.status.SetText(fmt.Sprintf("[red]load failed: %v", err))
		return
	}
	stats, err := b.store.Stats(ctx)
	if err != nil {
		b.status.SetText(fmt.Sprintf("[red]stats failed: %v", err))
		return
	}

	b.posts = posts
	b.renderTable()
	b.status.SetText(fmt.Sprintf(
		" %d posts (%d with media) | showing %d | q quit  r refresh",
		stats.Posts, stats.MediaPosts, len(posts)))
	if len(posts) > 0 {
		b.table.Select(1, 0)
		b.showDetail(0)
	}
}

func (b *browser) renderTable() {
	b.table.Clear()

	headers := []string{"Tweet ID", "Created", "Reply", "Quote", "Media", "Text"}
	for col, name := range headers {
		b.table.SetCell(0, col, tview.NewTableCell("[yellow::b]"+name).
			SetSelectable(false))
	}

	for i, p := range b.posts {
		text := p.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		b.table.SetCell(i+1, 0, tview.NewTableCell(strconv.FormatInt(int64(p.ID), 10)))
		b.table.SetCell(i+1, 1, tview.NewTableCell(p.CreatedAt.Format("2006-01-02 15:04")))
		b.table.SetCell(i+1, 2, tview.NewTableCell(mark(p.IsReply)))
		b.table.SetCell(i+1, 3, tview.NewTableCell(mark(p.IsQuote)))
		b.table.SetCell(i+1, 4, tview.NewTableCell(mark(p.HasMedia)))
		b.table.SetCell(i+1, 5, tview.NewTableCell(text).SetExpansion(1))
	}
}

func (b *browser) showDetail(i int) {
	if i < 0 || i >= len(b.posts) {
		b.detail.SetText("")
		return
	}
	p := b.posts[i]

	var out string
	out += fmt.Sprintf("[yellow::b]Tweet %d[-:-:-]\n\n", int64(p.ID))
	out += fmt.Sprintf("[white::b]Created:[-:-:-] %s\n", p.CreatedAt.Format(time.RFC1123Z))
	out += fmt.Sprintf("[white::b]URL:[-:-:-] %s\n", p.URL)
	out += fmt.Sprintf("[white::b]Reply:[-:-:-] %v  [white::b]Quote:[-:-:-] %v  [white::b]Media:[-:-:-] %v\n",
		p.IsReply, p.IsQuote, p.HasMedia)
	if p.TargetID != nil {
		out += fmt.Sprintf("[white::b]Target:[-:-:-] %d\n", int64(*p.TargetID))
	}
	if p.TargetURL != nil {
		out += fmt.Sprintf("[white::b]Target URL:[-:-:-] %s\n", *p.TargetURL)
	}
	out += "\n" + tview.Escape(p.Text) + "\n"

	if p.HasMedia {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		refs, err := b.store.MediaRefs(ctx, p.ID)
		if err == nil {
			if len(refs.ImageIDs) > 0 {
				out += "\n[white::b]Images:[-:-:-]\n"
				for _, id := range refs.ImageIDs {
					out += "  " + domain.ImageFetchURL(id) + "\n"
				}
			}
			if len(refs.VideoURLs) > 0 {
				out += "\n[white::b]Videos:[-:-:-]\n"
				for _, u := range refs.VideoURLs {
					out += "  " + u + "\n"
				}
			}
		}
	}

	b.detail.SetText(out)
	b.detail.ScrollToBeginning()
}

func mark(v bool) string {
	if v {
		return "[green]✔[-]"
	}
	return " "
}
