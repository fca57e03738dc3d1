// contentctl is a small operator CLI for a running ContentHub service.
//
// Usage:
//
//	contentctl -url http://localhost:3000 [-token TOKEN] <command> [flags]
//
// Commands:
//
//	list     list content items
//	get      fetch one item by id or slug
//	publish  publish a draft (optionally at a future time)
//	react    record a reaction on a published item
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/contenthub/internal/gateway"
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "base URL of the ContentHub service")
	token := flag.String("token", os.Getenv("CONTENTHUB_TOKEN"), "bearer token (defaults to $CONTENTHUB_TOKEN)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := gateway.New(*baseURL)
	sc := gateway.NewSessionContext(*token)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch args[0] {
	case "list":
		err = runList(ctx, client, sc, args[1:])
	case "get":
		err = runGet(ctx, client, sc, args[1:])
	case "publish":
		err = runPublish(ctx, client, sc, args[1:])
	case "react":
		err = runReact(ctx, client, sc, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: contentctl [flags] <command> [command flags]

Commands:
  list     list content items
  get      fetch one item by id or slug
  publish  publish a draft (optionally at a future time)
  react    record a reaction on a published item

Flags:
`)
	flag.PrintDefaults()
}

func runList(ctx context.Context, client *gateway.Client, sc *gateway.SessionContext, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	typ := fs.String("type", "", "content type filter (blog, research, case-study, documentation, help)")
	q := fs.String("q", "", "text query")
	category := fs.String("category", "", "category filter")
	limit := fs.Int("limit", 0, "max items")
	fs.Parse(args)

	items, err := client.List(ctx, sc, gateway.ListOptions{
		Type:     *typ,
		Query:    *q,
		Category: *category,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		fmt.Printf("%s  %-13s %-9s  %s\n", item.ID, item.Type, item.Status, item.Slug)
	}
	fmt.Fprintf(os.Stderr, "%d item(s)\n", len(items))
	return nil
}

func runGet(ctx context.Context, client *gateway.Client, sc *gateway.SessionContext, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	slug := fs.Bool("slug", false, "treat the argument as a slug instead of an id")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("get requires exactly one id or slug")
	}

	var item *gateway.ContentItem
	var err error
	if *slug {
		item, err = client.GetBySlug(ctx, sc, fs.Arg(0))
	} else {
		item, err = client.Get(ctx, sc, fs.Arg(0))
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(item)
}

func runPublish(ctx context.Context, client *gateway.Client, sc *gateway.SessionContext, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	at := fs.String("at", "", "schedule for a future time (RFC 3339)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("publish requires exactly one id")
	}

	var scheduledAt *time.Time
	if *at != "" {
		parsed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("bad -at value: %w", err)
		}
		scheduledAt = &parsed
	}

	item, err := client.Publish(ctx, sc, fs.Arg(0), scheduledAt)
	if err != nil {
		return err
	}

	if item.Status == "scheduled" && item.ScheduledAt != nil {
		fmt.Printf("scheduled %s for %s\n", item.Slug, item.ScheduledAt.Format(time.RFC3339))
	} else {
		fmt.Printf("published %s\n", item.Slug)
	}
	return nil
}

func runReact(ctx context.Context, client *gateway.Client, sc *gateway.SessionContext, args []string) error {
	fs := flag.NewFlagSet("react", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("react requires an id and a reaction")
	}

	if err := client.React(ctx, sc, fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
