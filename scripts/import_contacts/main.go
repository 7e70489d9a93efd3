package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mroshb/friends/internal/config"
	"github.com/mroshb/friends/internal/database"
	"github.com/mroshb/friends/internal/importer"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/pkg/logger"
)

// Imports an address-book file for a user. The format is picked by
// extension: .csv/.txt/.tsv go through the delimited parser, .xlsx
// through the spreadsheet parser and .vcf through the vCard parser.
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <owner-user-id> <file>\n", os.Args[0])
		os.Exit(1)
	}

	ownerID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil {
		log.Fatal("owner-user-id must be a positive integer")
	}
	path := os.Args[2]

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	im := importer.New(
		repositories.NewContactRepository(db),
		repositories.NewUserRepository(db),
	)

	var result *importer.Result
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		result, err = im.ImportDelimited(uint(ownerID), f)
	case ".xlsx":
		result, err = im.ImportExcel(uint(ownerID), f)
	case ".vcf", ".vcard":
		result, err = im.ImportVCards(uint(ownerID), f)
	default:
		log.Fatalf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		log.Fatal("import failed: ", err)
	}

	fmt.Printf("Imported %d of %d contacts\n", result.Imported, result.Total)
}
