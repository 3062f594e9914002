package main

import (
	"context"
	"coursehub/config"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/services/structure"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strings"
)

// Imports a course outline from a CSV with the headers
// chapter,lesson,description,thumbnail,video. Chapters are created in the
// order they first appear and lessons are appended to their chapter.
func main() {
	file := flag.String("file", "outline.csv", "CSV file to import")
	courseID := flag.Uint("course", 0, "course to append the outline to")
	userID := flag.Uint("user", 0, "admin or author performing the import")
	flag.Parse()

	if *courseID == 0 || *userID == 0 {
		log.Fatal("both -course and -user are required")
	}

	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()

	appLog, err := logger.New(config.AppConfig.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	// Map header indices
	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	ctx := context.Background()
	svc := structure.NewService(database.Database.Db, appLog)
	actor, res := svc.ActorFor(ctx, *userID)
	if !res.OK() {
		log.Fatalf("Cannot import as user %d: %s", *userID, res.Message)
	}
	if res := svc.Authorize(ctx, actor, *courseID); !res.OK() {
		log.Fatalf("Cannot import into course %d: %s", *courseID, res.Message)
	}

	chapters := make(map[string]uint)
	lessons, skipped := 0, 0

	for i, row := range records[1:] {
		chapterTitle := getField(row, headerIndex, "chapter")
		if chapterTitle == "" {
			skipped++
			continue
		}

		chapterID, ok := chapters[chapterTitle]
		if !ok {
			chapter, res := svc.AddChapter(ctx, actor, *courseID, chapterTitle)
			if !res.OK() {
				log.Fatalf("row %d: failed to add chapter %q: %s", i+2, chapterTitle, res.Message)
			}
			chapterID = chapter.ID
			chapters[chapterTitle] = chapterID
		}

		lessonTitle := getField(row, headerIndex, "lesson")
		if lessonTitle == "" {
			continue
		}
		_, res := svc.AddLesson(ctx, actor, *courseID, chapterID, structure.LessonInput{
			Title:        lessonTitle,
			Description:  getField(row, headerIndex, "description"),
			ThumbnailKey: getField(row, headerIndex, "thumbnail"),
			VideoKey:     getField(row, headerIndex, "video"),
		})
		if !res.OK() {
			log.Printf("row %d: skipping lesson %q: %s", i+2, lessonTitle, res.Message)
			skipped++
			continue
		}
		lessons++
	}

	repaired, err := svc.RepairCourse(ctx, *courseID)
	if err != nil {
		log.Fatalf("Failed to verify positions: %v", err)
	}

	log.Printf("=== Import Complete ===")
	log.Printf("Chapters: %d", len(chapters))
	log.Printf("Lessons: %d", lessons)
	log.Printf("Skipped: %d", skipped)
	log.Printf("Lists repaired: %d", repaired)
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
