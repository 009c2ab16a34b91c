package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/masahu84/Korvalia-backend/internal/emblematic"
)

// Connectivity probe for the Emblematic feed. Runs a handful of checks
// against the live API and writes a JSON report, so a broken token or a
// changed payload shape shows up before the site does.

type CheckResult struct {
	CheckName string    `json:"check_name"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Details   any       `json:"details,omitempty"`
}

type FeedCheckReport struct {
	BaseURL        string        `json:"base_url"`
	Results        []CheckResult `json:"results"`
	OverallSuccess bool          `json:"overall_success"`
	ExecutedAt     time.Time     `json:"executed_at"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	godotenv.Load()

	token := os.Getenv("EMBLEMATIC_TOKEN")
	if token == "" {
		log.Fatal("EMBLEMATIC_TOKEN not set")
	}

	baseURL := os.Getenv("EMBLEMATIC_BASE_URL")

	client := emblematic.NewClient(emblematic.ClientConfig{
		BaseURL: baseURL,
		Token:   token,
		Timeout: 20 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	report := &FeedCheckReport{
		BaseURL:    baseURL,
		ExecutedAt: time.Now(),
	}

	log.Println("============================================")
	log.Println("Emblematic feed check")
	log.Println("============================================")

	statusResult := checkStatus(ctx, client)
	report.Results = append(report.Results, statusResult)

	listingResult, firstReference := checkListing(ctx, client)
	report.Results = append(report.Results, listingResult)

	report.Results = append(report.Results, checkFeatured(ctx, client))

	if firstReference != "" {
		report.Results = append(report.Results, checkDetail(ctx, client, firstReference))
	} else {
		log.Println("[WARN] No reference from listing, skipping detail check")
	}

	report.Results = append(report.Results, checkCities(ctx, client))

	report.OverallSuccess = true
	for _, r := range report.Results {
		if !r.Success {
			report.OverallSuccess = false
		}
	}

	saveReport(report)

	if !report.OverallSuccess {
		os.Exit(1)
	}
}

func checkStatus(ctx context.Context, client *emblematic.Client) CheckResult {
	log.Println("[Check 1] API status")

	status, err := client.CheckStatus(ctx)
	if err != nil {
		return failure("api_status", fmt.Sprintf("status endpoint failed: %v", err))
	}

	log.Printf("[Check 1] OK: %s", status.Message)
	return success("api_status", status.Message, nil)
}

func checkListing(ctx context.Context, client *emblematic.Client) (CheckResult, string) {
	log.Println("[Check 2] First listing page")

	page, err := client.Properties(ctx, emblematic.SearchParams{Page: 1})
	if err != nil {
		return failure("listing_page", fmt.Sprintf("listing failed: %v", err)), ""
	}
	if len(page.Properties) == 0 {
		return failure("listing_page", "listing returned zero properties"), ""
	}

	// Count how many listings normalize with the fields the site needs
	usable := 0
	for _, p := range page.Properties {
		if p.Title != "" && p.Slug != "" && p.Price > 0 {
			usable++
		}
	}

	first := page.Properties[0]
	log.Printf("[Check 2] OK: %d total, %d on page, %d usable, first ref %s",
		page.Total, len(page.Properties), usable, first.Reference)

	return success("listing_page", fmt.Sprintf("%d properties, %d usable on first page", page.Total, usable), map[string]any{
		"total":           page.Total,
		"page_size":       len(page.Properties),
		"usable":          usable,
		"first_reference": first.Reference,
		"first_slug":      first.Slug,
	}), first.Reference
}

func checkFeatured(ctx context.Context, client *emblematic.Client) CheckResult {
	log.Println("[Check 3] Featured properties")

	featured, err := client.FeaturedProperties(ctx)
	if err != nil {
		return failure("featured", fmt.Sprintf("featured failed: %v", err))
	}

	total := len(featured.Featured) + len(featured.Latest)
	log.Printf("[Check 3] OK: %d featured, %d latest", len(featured.Featured), len(featured.Latest))

	return success("featured", fmt.Sprintf("%d highlighted properties", total), map[string]any{
		"featured": len(featured.Featured),
		"latest":   len(featured.Latest),
	})
}

func checkDetail(ctx context.Context, client *emblematic.Client, reference string) CheckResult {
	log.Printf("[Check 4] Detail lookup for %s", reference)

	property, err := client.PropertyByReference(ctx, reference)
	if err != nil {
		return failure("detail_lookup", fmt.Sprintf("detail for %s failed: %v", reference, err))
	}

	log.Printf("[Check 4] OK: %s (%s, %s)", property.Title, property.Operation, property.City)
	return success("detail_lookup", property.Title, map[string]any{
		"reference": property.Reference,
		"operation": property.Operation,
		"city":      property.City,
		"slug":      property.Slug,
		"images":    len(property.Images),
	})
}

func checkCities(ctx context.Context, client *emblematic.Client) CheckResult {
	log.Println("[Check 5] Available cities")

	cities, err := client.AvailableCities(ctx)
	if err != nil {
		return failure("cities", fmt.Sprintf("city scan failed: %v", err))
	}
	if len(cities) == 0 {
		return failure("cities", "city scan returned no cities")
	}

	log.Printf("[Check 5] OK: %d distinct cities", len(cities))
	return success("cities", fmt.Sprintf("%d distinct cities", len(cities)), cities)
}

func success(name, message string, details any) CheckResult {
	return CheckResult{
		CheckName: name,
		Success:   true,
		Message:   message,
		Timestamp: time.Now(),
		Details:   details,
	}
}

func failure(name, message string) CheckResult {
	log.Printf("[ERROR] %s: %s", name, message)
	return CheckResult{
		CheckName: name,
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func saveReport(report *FeedCheckReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal report: %v", err)
		return
	}

	filename := fmt.Sprintf("feedcheck_%s.json", report.ExecutedAt.Format("20060102_150405"))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
		return
	}

	log.Printf("Report saved to %s (overall: %v)", filename, report.OverallSuccess)
}
