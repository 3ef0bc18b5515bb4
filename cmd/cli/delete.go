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

// DeleteCmd représente la commande 'delete'
var DeleteCmd = &cobra.Command{
	Use:   "delete [short-code]",
	Short: "Delete a short URL and its recorded visits",
	Long:  `Supprime le lien identifié par le code court fourni ainsi que tous ses événements de visite.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cobraCmd *cobra.Command, args []string) {
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

		link, err := linkRepo.GetLinkByShortCode(shortCode)
		if err != nil {
			fmt.Printf("Error: Short code '%s' not found\n", shortCode)
			os.Exit(1)
		}

		if err := linkRepo.DeleteLink(link.ID); err != nil {
			fmt.Printf("Error deleting link: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Lien '%s' supprimé avec ses événements de visite.\n", shortCode)
	},
}

func init() {
	cmd.RootCmd.AddCommand(DeleteCmd)
}
