package client

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/deal"
)

// Bucket counts the rows sharing one stage or type.
type Bucket struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount,omitempty"`
}

// Dashboard is the overview shown on the client's landing page.
type Dashboard struct {
	Companies  int      `json:"companies"`
	Contacts   int      `json:"contacts"`
	Deals      int      `json:"deals"`
	WonDeals   int      `json:"won_deals"`
	Pipeline   float64  `json:"pipeline"`
	Stages     []Bucket `json:"stages"`
	Activities []Bucket `json:"activities"`
}

// Dashboard loads all four collections concurrently and summarizes them.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		companies, contacts int
		deals               []deal.Deal
		activities          []activity.Activity
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := c.Companies().List(ctx)
		companies = len(list)
		return err
	})
	g.Go(func() error {
		list, err := c.Contacts().List(ctx)
		contacts = len(list)
		return err
	})
	g.Go(func() (err error) {
		deals, err = c.Deals().List(ctx)
		return err
	})
	g.Go(func() (err error) {
		activities, err = c.Activities().List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := Summarize(deals, activities)
	d.Companies = companies
	d.Contacts = contacts
	return d, nil
}

// Summarize computes the deal and activity parts of a Dashboard. Stages and
// types follow deal.Stages and activity.Types; values outside those lists are
// appended in first-seen order.
func Summarize(deals []deal.Deal, activities []activity.Activity) *Dashboard {
	d := &Dashboard{
		Deals:      len(deals),
		Stages:     buckets(deal.Stages),
		Activities: buckets(activity.Types),
	}
	for _, dl := range deals {
		if dl.Stage == deal.StageWon {
			d.WonDeals++
		}
		d.Pipeline += dl.Amount
		b := bucketFor(&d.Stages, dl.Stage)
		b.Count++
		b.Amount += dl.Amount
	}
	for _, a := range activities {
		bucketFor(&d.Activities, a.Type).Count++
	}
	return d
}

func buckets(names []string) []Bucket {
	out := make([]Bucket, len(names))
	for i, n := range names {
		out[i].Name = n
	}
	return out
}

func bucketFor(list *[]Bucket, name string) *Bucket {
	i := slices.IndexFunc(*list, func(b Bucket) bool { return b.Name == name })
	if i < 0 {
		*list = append(*list, Bucket{Name: name})
		i = len(*list) - 1
	}
	return &(*list)[i]
}
