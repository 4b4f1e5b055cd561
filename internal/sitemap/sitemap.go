// Package sitemap renders sitemap.xml and robots.txt for the public website.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	CollectionProjects  = "projects"
	CollectionBlogPosts = "blogPosts"

	xmlns        = "http://www.sitemaps.org/schemas/sitemap/0.9"
	defaultLimit = 1000
)

// DefaultStaticPaths are listed before any collection entries.
var DefaultStaticPaths = []string{
	"/",
	"/about",
	"/services/residential-interior",
	"/services/commercial-interior",
	"/services/architectural-consultancy",
	"/portfolio",
	"/blog",
	"/contact",
}

var robotsDisallow = []string{
	"/admin/",
	"/api/",
	"/media/",
	"/src/",
	"/dist/",
	"/*.js$",
	"/*.ts$",
	"/*.tsx$",
	"/*.css$",
}

// Source lists published slugs of a collection.
type Source interface {
	Slugs(ctx context.Context, collection string, limit int) ([]string, error)
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlLoc `xml:"url"`
}

type urlLoc struct {
	Loc string `xml:"loc"`
}

// Builder assembles sitemap URLs rooted at a base URL.
type Builder struct {
	BaseURL     string
	StaticPaths []string
	Limit       int
	Source      Source
}

func (b *Builder) base() string {
	return strings.TrimRight(b.BaseURL, "/")
}

// URLs returns static paths, then project pages, then blog posts.
func (b *Builder) URLs(ctx context.Context) ([]string, error) {
	limit := b.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	paths := b.StaticPaths
	if len(paths) == 0 {
		paths = DefaultStaticPaths
	}

	var projects, posts []string
	if b.Source != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			projects, err = b.Source.Slugs(gctx, CollectionProjects, limit)
			return err
		})
		g.Go(func() error {
			var err error
			posts, err = b.Source.Slugs(gctx, CollectionBlogPosts, limit)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("sitemap: list content: %w", err)
		}
	}

	base := b.base()
	urls := make([]string, 0, len(paths)+len(projects)+len(posts))
	for _, p := range paths {
		urls = append(urls, base+p)
	}
	for _, slug := range projects {
		urls = append(urls, base+"/project/"+slug)
	}
	for _, slug := range posts {
		urls = append(urls, base+"/blog/"+slug)
	}
	return urls, nil
}

// XML renders the urlset document.
func (b *Builder) XML(ctx context.Context) ([]byte, error) {
	urls, err := b.URLs(ctx)
	if err != nil {
		return nil, err
	}

	set := urlSet{Xmlns: xmlns, URLs: make([]urlLoc, len(urls))}
	for i, u := range urls {
		set.URLs[i] = urlLoc{Loc: u}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("sitemap: encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots renders robots.txt pointing crawlers at the sitemap.
func (b *Builder) Robots() string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	for _, d := range robotsDisallow {
		sb.WriteString("Disallow: " + d + "\n")
	}
	sb.WriteString("\nSitemap: " + b.base() + "/sitemap.xml")
	return sb.String()
}
