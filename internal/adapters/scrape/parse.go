package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/stats"
)

// Season-log rows carry identity columns (year, age, team, league) before
// the stat cells; only cells [seasonCellStart, seasonCellEnd) are stats.
const (
	seasonCellStart = 4
	seasonCellEnd   = 33
)

// Page selectors.
const (
	rosterTableSelector = "table.per_match_toggle"
	rosterRowSelector   = "tbody tr"
	positionSelector    = `td[data-stat="pos"]`
	seasonRowSelector   = "tr.full_table"
)

// ParseRoster reads the scrimmage listing. Rows without a player link in
// their first data cell or without a position cell are skipped; repeated
// header rows fall out this way. Links are resolved against base.
func ParseRoster(r io.Reader, base string) ([]model.Player, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrParse, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	table := doc.Find(rosterTableSelector).First()
	if table.Length() == 0 {
		return nil, &Error{Kind: KindParse, URL: base, Err: ErrRosterTableMissing}
	}

	var players []model.Player
	table.Find(rosterRowSelector).Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find("td").First().Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		pos := tr.Find(positionSelector).First()
		if pos.Length() == 0 {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		players = append(players, model.Player{
			Name:     strings.TrimSpace(link.Text()),
			URL:      baseURL.ResolveReference(ref).String(),
			Position: strings.TrimSpace(pos.Text()),
		})
	})
	return players, nil
}

// ParseSeasonLog reads the first table body of a player page and returns one
// SeasonStat per full-season row, most recent first.
func ParseSeasonLog(r io.Reader) (model.SeasonHistory, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, &Error{Kind: KindParse, Err: ErrSeasonTableMissing}
	}

	var history model.SeasonHistory
	var extractErr error
	tbody.Find(seasonRowSelector).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		s, err := stats.Extract(seasonRecord(tr))
		if err != nil {
			extractErr = err
			return false
		}
		history = append(history, s)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	// Page order is chronological.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

func seasonRecord(tr *goquery.Selection) stats.Record {
	cells := tr.Find("td")
	n := cells.Length()
	if n <= seasonCellStart {
		return nil
	}
	end := seasonCellEnd
	if n < end {
		end = n
	}
	rec := make(stats.Record, 0, end-seasonCellStart)
	cells.Slice(seasonCellStart, end).Each(func(_ int, td *goquery.Selection) {
		rec = append(rec, stats.Cell{
			Stat: td.AttrOr("data-stat", ""),
			Text: td.Text(),
		})
	})
	return rec
}
