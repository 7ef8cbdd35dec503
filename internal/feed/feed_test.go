package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/dmorgan81/imagestudio/internal/share"
	"github.com/dmorgan81/imagestudio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	objs   []store.Object
	err    error
	suffix string
}

func (l *staticLister) List(_ context.Context, suffix string) ([]store.Object, error) {
	l.suffix = suffix
	return l.objs, l.err
}

type rss struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

func TestGenerate(t *testing.T) {
	older := share.Record{ID: "old", Prompt: "a dog", Size: "1024x1024", Style: "vivid", Created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := share.Record{ID: "new", Prompt: "a cat", Size: "1792x1024", Style: "natural", Created: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	lister := &staticLister{objs: []store.Object{
		{Name: "new.png", Metadata: newer.Metadata()},
		{Name: "old.png", Metadata: older.Metadata()},
	}}
	g := &Generator{lister: lister, title: "Studio", baseURL: "https://studio.example"}

	data, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ".png", lister.suffix)

	var out rss
	require.NoError(t, xml.Unmarshal(data, &out))
	assert.Equal(t, "Studio", out.Channel.Title)
	require.Len(t, out.Channel.Items, 2)
	assert.Equal(t, "a dog:1024x1024:vivid", out.Channel.Items[0].Title)
	assert.Equal(t, "https://studio.example/old.html", out.Channel.Items[0].Link)
	assert.Equal(t, "a cat:1792x1024:natural", out.Channel.Items[1].Title)
}

func TestGenerateWithoutMetadata(t *testing.T) {
	lister := &staticLister{objs: []store.Object{{Name: "bare.png", Updated: time.Now()}}}
	g := &Generator{lister: lister, title: "Studio", baseURL: "https://studio.example"}

	data, err := g.Generate(context.Background())
	require.NoError(t, err)

	var out rss
	require.NoError(t, xml.Unmarshal(data, &out))
	require.Len(t, out.Channel.Items, 1)
	assert.Equal(t, "https://studio.example/bare.html", out.Channel.Items[0].Link)
}

func TestGenerateListError(t *testing.T) {
	g := &Generator{lister: &staticLister{err: errors.New("denied")}}
	_, err := g.Generate(context.Background())
	assert.ErrorContains(t, err, "denied")
}
