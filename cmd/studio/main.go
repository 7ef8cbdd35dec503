package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/dmorgan81/imagestudio/internal/studio"
)

var (
	server   = flag.String("server", "http://localhost:3000", "Base URL of the studio server")
	size     = flag.String("size", string(image.DefaultSize), "Image size: 1024x1024, 1024x1792 or 1792x1024")
	quality  = flag.String("quality", string(image.DefaultQuality), "Image quality: standard or hd")
	style    = flag.String("style", string(image.DefaultStyle), "Image style: vivid or natural")
	random   = flag.Bool("random", false, "Use a random example prompt")
	download = flag.String("download", "", "Directory to save the generated image into")
	doShare  = flag.Bool("share", false, "Publish the generated image and print its page")
	timeout  = flag.Duration("timeout", 3*time.Minute, "Overall request timeout")
	logLevel = flag.String("log-level", "warn", "Log level")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <prompt>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, log.ParseLevel(*logLevel))
	ctx, stop := signal.NotifyContext(log.NewContext(context.Background(), logger), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settings := studio.Settings{Size: image.Size(*size), Quality: image.Quality(*quality), Style: image.Style(*style)}
	switch {
	case !settings.Size.Valid():
		return fmt.Errorf("invalid size %q", *size)
	case !settings.Quality.Valid():
		return fmt.Errorf("invalid quality %q", *quality)
	case !settings.Style.Valid():
		return fmt.Errorf("invalid style %q", *style)
	}

	client := studio.NewClient(*server, &http.Client{})
	session := studio.NewSession(client)
	session.SetSettings(settings)

	prompt := strings.Join(flag.Args(), " ")
	if *random {
		p, err := client.RandomPrompt(ctx)
		if err != nil {
			return err
		}
		prompt = p
	}
	session.SetPrompt(prompt)

	if err := session.Submit(ctx); err != nil {
		return fmt.Errorf("generate: %s", session.View().Error)
	}

	view := session.View()
	fmt.Println(view.Result.URL)
	if view.ShowRevisedPrompt() {
		fmt.Println("Revised prompt:", view.Result.RevisedPrompt)
	}

	if *download != "" {
		path := filepath.Join(*download, session.FileName())
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = session.Download(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			return err
		}
		fmt.Println("Saved", path)
	}

	if *doShare {
		res, err := session.Share(ctx)
		if err != nil {
			return fmt.Errorf("share: %s", session.View().Error)
		}
		fmt.Println("Shared", res.PageURL)
	}
	return nil
}
