package cli

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vborgne/urlshortener/cmd"
	"github.com/vborgne/urlshortener/internal/config"
	"github.com/vborgne/urlshortener/internal/hash"
	"github.com/vborgne/urlshortener/internal/repository"
	"github.com/vborgne/urlshortener/internal/services"
)

var (
	originalURLFlag string
	expiresFlag     string
	ownerFlag       uint
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL fournie et affiche le code court généré.

Exemple:
  urlshortener create --url="https://www.google.com/search?q=go+lang" --owner=1 --expires="2026-12-31T23:59:59Z"`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if originalURLFlag == "" {
			fmt.Println("Error: --url flag is required")
			os.Exit(1)
		}

		// Validation basique du format de l'URL
		if _, err := url.ParseRequestURI(originalURLFlag); err != nil {
			fmt.Printf("Error: Invalid URL format: %v\n", err)
			os.Exit(1)
		}

		var expiresAt *time.Time
		if expiresFlag != "" {
			parsed, err := time.Parse(time.RFC3339, expiresFlag)
			if err != nil {
				fmt.Printf("Error: Invalid expiration date (RFC 3339 expected): %v\n", err)
				os.Exit(1)
			}
			expiresAt = &parsed
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		// Initialiser les repositories et services nécessaires
		linkRepo := repository.NewLinkRepository(db)
		visitRepo := repository.NewVisitRepository(db)
		linkService := services.NewLinkService(linkRepo, visitRepo, hash.New(hash.DefaultLength), nil, zap.NewNop())

		link, err := linkService.CreateLink(originalURLFlag, expiresAt, ownerFlag)
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Code: %s\n", link.ShortCode)
		fmt.Printf("URL complète: %s/%s\n", cfg.Server.BaseURL, link.ShortCode)
	},
}

func init() {
	CreateCmd.Flags().StringVar(&originalURLFlag, "url", "", "The URL to shorten")
	CreateCmd.Flags().StringVar(&expiresFlag, "expires", "", "Optional expiration date (RFC 3339)")
	CreateCmd.Flags().UintVar(&ownerFlag, "owner", 0, "ID of the owning user")

	CreateCmd.MarkFlagRequired("url")
	CreateCmd.MarkFlagRequired("owner")

	cmd.RootCmd.AddCommand(CreateCmd)
}
