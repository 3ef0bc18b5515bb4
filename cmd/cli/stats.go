package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vborgne/urlshortener/cmd"
	"github.com/vborgne/urlshortener/internal/config"
	"github.com/vborgne/urlshortener/internal/repository"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get visit statistics for a short URL",
	Long:  `Affiche le compteur de visites et les derniers événements enregistrés pour le code court fourni.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	shortCode := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Échec de l'obtention de la base de données SQL sous-jacente : %v", err)
	}
	defer sqlDB.Close()

	linkRepo := repository.NewLinkRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	link, err := linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		fmt.Printf("Error: Short code '%s' not found\n", shortCode)
		os.Exit(1)
	}

	visits, err := visitRepo.GetVisitsByLinkID(link.ID)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Statistiques pour le code court: %s\n", shortCode)
	fmt.Printf("URL d'origine: %s\n", link.OriginalURL)
	fmt.Printf("Total de visites: %d\n", link.VisitCount)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	if link.ExpiresAt != nil {
		fmt.Printf("Expire le: %s\n", link.ExpiresAt.Format("2006-01-02 15:04:05"))
	}

	// Afficher les dernières visites (10 max)
	limit := len(visits)
	if limit > 10 {
		limit = 10
	}
	for _, v := range visits[:limit] {
		fmt.Printf("  - %s | %s | %s | %s\n",
			v.VisitedAt.Format("2006-01-02 15:04:05"), v.Browser, v.Device, v.Location)
	}
}
