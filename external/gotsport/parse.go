package gotsport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

var (
	ageGroupRegex   = regexp.MustCompile(`(?i)\b([UO]\d{1,2}|\d{1,2}U)\b`)
	genderRegex     = regexp.MustCompile(`(?i)\b(Boys?|Girls?|Men|Women)\b`)
	dateGlueRegex   = regexp.MustCompile(`(\d{4})(\d{1,2}:)`)
	longDateRegex   = regexp.MustCompile(`([A-Za-z]+\s+\d{1,2},\s+\d{4})`)
	clockTimeRegex  = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*[AP]M)`)
	scoreRegex      = regexp.MustCompile(`^(\d+)\s*[-:]\s*(\d+)`)
	bracketRegex    = regexp.MustCompile(`(?i)\b(Bracket|Pool|Group)\s+([A-Z0-9]+)\b`)
	slashDateRegex  = regexp.MustCompile(`^\d{1,2}/\d{1,2}(/\d{2,4})?$`)
	gameNumberRegex = regexp.MustCompile(`^[A-Z]?\d{1,4}$`)
)

// divisionRef is a schedule link discovered on the event page.
type divisionRef struct {
	ExternalID  string
	Name        string
	ScheduleURL string
}

// parseEventName tries the widget title first, then the navbar brand,
// then the page title with the platform suffix stripped.
func parseEventName(doc *goquery.Document) string {
	if name := strings.TrimSpace(doc.Find("div.widget-title").First().Text()); name != "" {
		return collapseSpaces(name)
	}
	if name := strings.TrimSpace(doc.Find("a.navbar-brand-event").First().Text()); name != "" {
		return collapseSpaces(name)
	}
	if name := strings.TrimSpace(doc.Find("span[class*='navbar-brand']").First().Text()); name != "" {
		return collapseSpaces(name)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSuffix(title, " - GotSport")
	if title == "GotSport" {
		return ""
	}
	return collapseSpaces(title)
}

// parseDivisionRefs collects every schedules?group= link, deduplicated
// by group id. Division names live in the surrounding panel markup: a
// bold label near the link and an age group in the panel heading.
func parseDivisionRefs(doc *goquery.Document, baseURL, eventID string) []divisionRef {
	seen := make(map[string]bool)
	var refs []divisionRef

	doc.Find("a[href*='group=']").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "schedules") {
			return
		}
		match := groupIDRegex.FindStringSubmatch(href)
		if match == nil {
			return
		}
		groupID := match[1]
		if seen[groupID] {
			return
		}
		seen[groupID] = true

		scheduleURL := href
		switch {
		case strings.HasPrefix(href, "http"):
		case strings.HasPrefix(href, "/"):
			scheduleURL = baseURL + href
		default:
			scheduleURL = fmt.Sprintf("%s/org_event/events/%s/schedules?group=%s", baseURL, eventID, groupID)
		}

		refs = append(refs, divisionRef{
			ExternalID:  groupID,
			Name:        divisionNameFor(sel),
			ScheduleURL: scheduleURL,
		})
	})

	return refs
}

func divisionNameFor(sel *goquery.Selection) string {
	qualifier := ""
	for parent := sel.Parent(); parent.Length() > 0 && qualifier == ""; parent = parent.Parent() {
		if !parent.Is("tr, td, div") {
			continue
		}
		qualifier = collapseSpaces(parent.Find("b").First().Text())
	}

	ageGroup := ""
	heading := sel.ParentsFiltered("div[class*='panel']").Not("[class*='panel-body']").
		Find("div[class*='panel-heading'], div[class*='panel-title']").First()
	if heading.Length() > 0 {
		if match := ageGroupRegex.FindString(heading.Text()); match != "" {
			ageGroup = normalizeAgeGroup(match)
		}
	}

	switch {
	case ageGroup != "" && qualifier != "":
		if strings.Contains(strings.ToUpper(qualifier), ageGroup) {
			return qualifier
		}
		return ageGroup + " " + qualifier
	case qualifier != "":
		return qualifier
	case ageGroup != "":
		return ageGroup
	default:
		return ""
	}
}

// parseDivisionSchedule reads game rows from the schedule tables on a
// division page. Standings tables on the same page are skipped by their
// column headers.
func parseDivisionSchedule(doc *goquery.Document, ref divisionRef) usecase.DivisionSnapshot {
	name := ref.Name
	if name == "" {
		name = "Division " + ref.ExternalID
	}

	snap := usecase.DivisionSnapshot{
		ExternalID: ref.ExternalID,
		Name:       name,
		AgeGroup:   ageGroupFromName(name),
		Gender:     genderFromName(name),
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headers := tableHeaders(table)
		if !isScheduleTable(headers) {
			return
		}
		snap.Games = append(snap.Games, parseScheduleRows(table, headers)...)
	})

	// Match numbers repeat across divisions, so the stable id is
	// group-qualified.
	for i := range snap.Games {
		if snap.Games[i].GameNumber != "" {
			snap.Games[i].ExternalID = ref.ExternalID + "-" + snap.Games[i].GameNumber
		}
	}

	return snap
}

func tableHeaders(table *goquery.Selection) []string {
	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(collapseSpaces(th.Text())))
	})
	return headers
}

func isScheduleTable(headers []string) bool {
	joined := strings.Join(headers, " ")
	if !strings.Contains(joined, "match") && !strings.Contains(joined, "game #") {
		return false
	}
	// Standings share the page and carry mp/pts/gd columns.
	for _, marker := range []string{"mp", "pts", "gd", "standings"} {
		for _, header := range headers {
			if header == marker {
				return false
			}
		}
	}
	return true
}

func parseScheduleRows(table *goquery.Selection, headers []string) []usecase.RawGame {
	matchIdx := headerIndex(headers, "match", "game")
	timeIdx := headerIndex(headers, "time")
	homeIdx := headerIndex(headers, "home")
	awayIdx := headerIndex(headers, "away")
	fieldIdx := headerIndex(headers, "field", "location")
	resultIdx := headerIndex(headers, "result", "score")

	var games []usecase.RawGame
	table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
		if rowIdx == 0 {
			return
		}
		cells := row.Find("td, th").Map(func(_ int, cell *goquery.Selection) string {
			return collapseSpaces(cell.Text())
		})
		if len(cells) < 3 {
			return
		}

		var raw usecase.RawGame
		if matchIdx >= 0 {
			positionalParse(&raw, cells, matchIdx, timeIdx, homeIdx, awayIdx, fieldIdx, resultIdx)
		} else {
			heuristicParse(&raw, cells)
		}

		if bracket := bracketRegex.FindString(row.Text()); bracket != "" {
			raw.Bracket = collapseSpaces(bracket)
		}

		hasHome := raw.HomeTeamName != nil && *raw.HomeTeamName != ""
		hasAway := raw.AwayTeamName != nil && *raw.AwayTeamName != ""
		if hasHome || hasAway {
			games = append(games, raw)
		}
	})
	return games
}

func positionalParse(raw *usecase.RawGame, cells []string, matchIdx, timeIdx, homeIdx, awayIdx, fieldIdx, resultIdx int) {
	if cell, ok := cellAt(cells, matchIdx); ok {
		raw.GameNumber = cell
	}
	if cell, ok := cellAt(cells, timeIdx); ok {
		raw.GameDate, raw.GameTime = parseDateTimeCell(cell)
	}
	if cell, ok := cellAt(cells, homeIdx); ok && cell != "" {
		raw.HomeTeamName = &cell
	}
	if cell, ok := cellAt(cells, awayIdx); ok && cell != "" {
		raw.AwayTeamName = &cell
	}
	if cell, ok := cellAt(cells, fieldIdx); ok {
		raw.FieldName = cell
	} else {
		claimed := map[int]bool{matchIdx: true, timeIdx: true, homeIdx: true, awayIdx: true, resultIdx: true}
		for i, cell := range cells {
			if claimed[i] || cell == "" {
				continue
			}
			lower := strings.ToLower(cell)
			if strings.Contains(lower, "field") || strings.Contains(lower, "court") || strings.Contains(lower, "pitch") {
				raw.FieldName = cell
				break
			}
		}
	}
	if cell, ok := cellAt(cells, resultIdx); ok {
		if home, away, ok := parseScore(cell); ok {
			raw.HomeScore = &home
			raw.AwayScore = &away
			raw.Status = "completed"
		}
	}
}

// heuristicParse handles tables without a recognized header layout by
// classifying each cell on its shape.
func heuristicParse(raw *usecase.RawGame, cells []string) {
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		lower := strings.ToLower(cell)
		switch {
		case slashDateRegex.MatchString(cell):
			if parsed := parseSlashDate(cell); parsed != nil {
				raw.GameDate = parsed
			}
		case clockTimeRegex.MatchString(cell) && raw.GameTime == "":
			raw.GameTime = clockTimeRegex.FindString(cell)
		case strings.Contains(lower, "field") && raw.FieldName == "":
			raw.FieldName = cell
		case gameNumberRegex.MatchString(cell) && raw.GameNumber == "":
			raw.GameNumber = cell
		case len(cell) > 3 && !strings.Contains(lower, "score") && !strings.Contains(lower, "result") && lower != "vs":
			value := cell
			if raw.HomeTeamName == nil {
				raw.HomeTeamName = &value
			} else if raw.AwayTeamName == nil {
				raw.AwayTeamName = &value
			}
		}
	}
}

func headerIndex(headers []string, keywords ...string) int {
	for i, header := range headers {
		for _, keyword := range keywords {
			if strings.Contains(header, keyword) {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(cells) {
		return "", false
	}
	return cells[idx], true
}

// parseDateTimeCell splits the combined date/time cell the platform
// renders, like "Feb 14, 2025 9:10 PM EST". The space between year and
// clock is sometimes swallowed ("20259:10"), so it is restored first.
func parseDateTimeCell(cell string) (*time.Time, string) {
	cell = dateGlueRegex.ReplaceAllString(cell, "$1 $2")

	var date *time.Time
	if match := longDateRegex.FindString(cell); match != "" {
		if parsed, err := time.Parse("Jan 2, 2006", collapseSpaces(match)); err == nil {
			parsed = parsed.UTC()
			date = &parsed
		}
	}

	clock := ""
	if match := clockTimeRegex.FindString(cell); match != "" {
		clock = strings.ToUpper(collapseSpaces(match))
	}
	if date == nil && clock == "" {
		clock = collapseSpaces(cell)
	}
	return date, clock
}

func parseSlashDate(cell string) *time.Time {
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		if parsed, err := time.Parse(layout, cell); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}

func parseScore(cell string) (int, int, bool) {
	match := scoreRegex.FindStringSubmatch(cell)
	if match == nil {
		return 0, 0, false
	}
	home, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func ageGroupFromName(name string) string {
	match := ageGroupRegex.FindString(name)
	if match == "" {
		return ""
	}
	return normalizeAgeGroup(match)
}

// normalizeAgeGroup maps both spellings to the U-prefix form: 10U -> U10.
func normalizeAgeGroup(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if strings.HasSuffix(value, "U") {
		return "U" + strings.TrimSuffix(value, "U")
	}
	return value
}

func genderFromName(name string) string {
	match := genderRegex.FindString(name)
	if match == "" {
		return ""
	}
	switch strings.ToLower(match) {
	case "boy", "boys":
		return "Boys"
	case "girl", "girls":
		return "Girls"
	case "men":
		return "Men"
	default:
		return "Women"
	}
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
