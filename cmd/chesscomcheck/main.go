package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/openinglab/chesstrail/internal/chesscom"
)

func main() {
	username := os.Getenv("CHESSCOM_USERNAME")
	if len(os.Args) > 1 {
		username = os.Args[1]
	}
	if username == "" {
		log.Fatal("usage: chesscomcheck <username> [year month] (or set CHESSCOM_USERNAME)")
	}

	baseURL := os.Getenv("CHESSCOM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.chess.com"
	}

	client := chesscom.NewClient(baseURL, chesscom.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	archives, err := client.Archives(ctx, username)
	if err != nil {
		log.Fatalf("archives error: %v", err)
	}
	log.Printf("archives ok: %d months", len(archives))
	for _, u := range archives {
		fmt.Println(u)
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if len(os.Args) > 3 {
		if y, err := strconv.Atoi(os.Args[2]); err == nil {
			year = y
		}
		if m, err := strconv.Atoi(os.Args[3]); err == nil {
			month = m
		}
	}

	games, err := client.MonthlyGames(ctx, username, year, month)
	if err != nil {
		log.Fatalf("month fetch error: %v", err)
	}
	log.Printf("month %04d-%02d: %d games", year, month, len(games))
}
