package cli

import (
	"flag"
	"fmt"
	"os"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/importer"
	"wpmigrate/internal/wxr"
)

// InspectCommand reports what a WXR export contains without touching any
// destination.
type InspectCommand struct {
	ExportPath string
	Verbose    bool
}

func NewInspectCommand() *InspectCommand {
	return &InspectCommand{}
}

func (cmd *InspectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)

	fs.StringVar(&cmd.ExportPath, "file", "", "Path to the WordPress WXR export file (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List individual categories and tags")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inspect -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Inspect a WordPress WXR export without importing anything.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s inspect -file export.xml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s inspect -file export.xml -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ExportPath == "" {
		fs.Usage()
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *InspectCommand) Run() error {
	if _, err := os.Stat(cmd.ExportPath); os.IsNotExist(err) {
		return fmt.Errorf("export file not found: %s", cmd.ExportPath)
	}

	ex, err := wxr.Open(cmd.ExportPath)
	if err != nil {
		return err
	}

	info := ex.Info()
	fmt.Println("Export Inspection")
	fmt.Println("=================")
	fmt.Printf("File: %s\n", cmd.ExportPath)
	fmt.Printf("Site: %s\n", info.Title)
	fmt.Printf("Link: %s\n", info.Link)
	fmt.Printf("WXR version: %s\n", info.WXRVersion)
	if info.SiteURL != "" {
		fmt.Printf("Origin base: %s\n", info.SiteURL)
	}
	if info.BlogURL != "" && info.BlogURL != info.SiteURL {
		fmt.Printf("Blog base: %s\n", info.BlogURL)
	}

	ds, err := importer.NewCollector(nil).Collect(ex)
	if err != nil {
		return err
	}

	byType := make(map[entities.ContentType]int)
	byStatus := make(map[entities.EntryStatus]int)
	comments, fields := 0, 0
	for _, e := range ds.Entries {
		byType[e.Type]++
		byStatus[e.Status]++
		comments += len(e.Comments)
		fields += len(e.CustomFields)
	}

	fmt.Println("\n=== Content ===")
	fmt.Printf("Entries: %d (%d posts, %d pages, %d other)\n", len(ds.Entries),
		byType[entities.ContentTypePost], byType[entities.ContentTypePage], byType[entities.ContentTypeOther])
	fmt.Printf("Status: %d published, %d drafts, %d private\n",
		byStatus[entities.EntryStatusPublished], byStatus[entities.EntryStatusDraft], byStatus[entities.EntryStatusPrivate])
	fmt.Printf("Comments: %d\n", comments)
	fmt.Printf("Custom fields: %d\n", fields)

	byKind := make(map[string]int)
	var totalBytes int64
	for _, m := range ds.Media {
		byKind[destination.MediaKind(m.MIMEType)]++
		totalBytes += m.ByteSize
	}
	fmt.Printf("\nMedia attachments: %d (%d images, %d vectors, %d files), %.1f MB declared\n",
		len(ds.Media), byKind[destination.KindImage], byKind[destination.KindSVG], byKind[destination.KindFile],
		float64(totalBytes)/(1<<20))

	fmt.Printf("\nCategories: %d\n", len(ds.Categories))
	fmt.Printf("Tags: %d\n", len(ds.Tags))

	if ds.SkippedItems > 0 || ds.MalformedItems > 0 || ds.FailedItems > 0 {
		fmt.Printf("\nNot importable: %d platform-internal, %d malformed, %d rejected\n",
			ds.SkippedItems, ds.MalformedItems, ds.FailedItems)
	}

	if cmd.Verbose {
		if len(ds.Categories) > 0 {
			fmt.Println("\n=== Categories ===")
			for _, c := range ds.Categories {
				if c.ParentSlug != "" {
					fmt.Printf("  %s \"%s\" (parent: %s)\n", c.Slug, c.Name, c.ParentSlug)
				} else {
					fmt.Printf("  %s \"%s\"\n", c.Slug, c.Name)
				}
			}
		}
		if len(ds.Tags) > 0 {
			fmt.Println("\n=== Tags ===")
			for _, t := range ds.Tags {
				fmt.Printf("  %s \"%s\"\n", t.Slug, t.Name)
			}
		}
	}

	return nil
}
