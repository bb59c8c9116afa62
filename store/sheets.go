package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/nacionrock/album-votes/poll"
)

// WriteMode selects how a table is written back to a worksheet.
type WriteMode string

const (
	// Update overwrites the worksheet in place from A1 and then clears columns
	// A:D below the last row written.
	Update WriteMode = "update"

	// Replace clears columns A:D of the worksheet and then writes the table.
	Replace WriteMode = "replace"
)

const DefaultWorksheet = "Sheet1"

// Sheets is a worksheet in a Google Sheets spreadsheet with the header in row
// 1 and the album table in columns A to D.
type Sheets struct {
	google      *sheets.Service
	spreadsheet string
	worksheet   string
	mode        WriteMode
	debug       bool
}

func NewSheets(google *sheets.Service, spreadsheet, worksheet string, mode WriteMode, debug bool) (*Sheets, error) {
	if strings.TrimSpace(worksheet) == "" {
		worksheet = DefaultWorksheet
	}

	switch mode {
	case "":
		mode = Update

	case Update, Replace:

	default:
		return nil, fmt.Errorf("invalid write mode '%v' - expected 'update' or 'replace'", mode)
	}

	id, err := SpreadsheetID(spreadsheet)
	if err != nil {
		return nil, err
	}

	return &Sheets{
		google:      google,
		spreadsheet: id,
		worksheet:   worksheet,
		mode:        mode,
		debug:       debug,
	}, nil
}

// SpreadsheetID extracts the spreadsheet ID from a docs.google.com URL. A
// bare ID is returned as is.
func SpreadsheetID(url string) (string, error) {
	url = strings.TrimSpace(url)

	if match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(url); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

func (s *Sheets) Load(ctx context.Context) (poll.Table, error) {
	area := s.area("A1:D")

	if s.debug {
		debugf("Spreadsheet - ID:%s  range:%s", s.spreadsheet, area)
	}

	response, err := s.google.Spreadsheets.Values.Get(s.spreadsheet, area).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return poll.Empty(), loadError("unable to retrieve data from sheet", err)
	}

	if len(response.Values) == 0 {
		return poll.Empty(), loadError("no data in worksheet", fmt.Errorf("%s is empty", area))
	}

	table, err := poll.MakeTable(response.Values)
	if err != nil {
		return poll.Empty(), loadError("error creating table from worksheet", err)
	}

	return table, nil
}

func (s *Sheets) Save(ctx context.Context, table poll.Table) error {
	switch s.mode {
	case Replace:
		return s.replace(ctx, table)

	default:
		return s.update(ctx, table)
	}
}

func (s *Sheets) update(ctx context.Context, table poll.Table) error {
	rq := sheets.ValueRange{
		Range:  s.area("A1"),
		Values: table.Values(),
	}

	if _, err := s.google.Spreadsheets.Values.Update(s.spreadsheet, rq.Range, &rq).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return saveError("error writing table to Google Sheets", err)
	}

	clear := sheets.BatchClearValuesRequest{
		Ranges: []string{s.area(fmt.Sprintf("A%d:D", len(rq.Values)+1))},
	}

	if _, err := s.google.Spreadsheets.Values.BatchClear(s.spreadsheet, &clear).Context(ctx).Do(); err != nil {
		warnf("table written to %v but the rows below it could not be cleared", s.worksheet)
		return saveError("error clearing worksheet", err)
	}

	if s.debug {
		debugf("Updated %v rows in %s and cleared %v", len(rq.Values), rq.Range, clear.Ranges[0])
	}

	return nil
}

func (s *Sheets) replace(ctx context.Context, table poll.Table) error {
	clear := sheets.BatchClearValuesRequest{
		Ranges: []string{s.area("A:D")},
	}

	if _, err := s.google.Spreadsheets.Values.BatchClear(s.spreadsheet, &clear).Context(ctx).Do(); err != nil {
		return saveError("error clearing worksheet", err)
	}

	rq := sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{
				Range:  s.area("A1"),
				Values: table.Values(),
			},
		},
	}

	if _, err := s.google.Spreadsheets.Values.BatchUpdate(s.spreadsheet, &rq).Context(ctx).Do(); err != nil {
		warnf("worksheet %v was cleared but the table could not be written", s.worksheet)
		return saveError("error writing table to Google Sheets", err)
	}

	if s.debug {
		debugf("Replaced %s with %v rows", s.worksheet, table.Len()+1)
	}

	return nil
}

func (s *Sheets) area(cells string) string {
	if regexp.MustCompile(`^[a-zA-Z0-9_]+$`).MatchString(s.worksheet) {
		return fmt.Sprintf("%s!%s", s.worksheet, cells)
	}

	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.worksheet, "'", "''"), cells)
}

func (s *Sheets) String() string {
	return fmt.Sprintf("sheets:%s/%s", s.spreadsheet, s.worksheet)
}
