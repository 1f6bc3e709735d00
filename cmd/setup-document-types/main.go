// Seeds the default document types for grant applications.
// cmd/setup-document-types/main.go
package main

import (
	"log"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"

	"github.com/joho/godotenv"
)

const defaultMaxFileSize = 10 * 1024 * 1024

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	config.InitDB()

	documentTypes := []models.DocumentType{
		{
			Name:              "Government ID",
			Description:       "Valid government-issued photo identification (driver's license, passport, state ID)",
			Required:          true,
			DisplayOrder:      1,
			AllowedExtensions: "pdf,jpg,jpeg,png",
		},
		{
			Name:              "Proof of Income",
			Description:       "Recent tax returns, pay stubs, or benefit statements showing current financial status",
			Required:          true,
			DisplayOrder:      2,
			AllowedExtensions: "pdf,doc,docx,jpg,jpeg,png",
		},
		{
			Name:              "Bank Statements",
			Description:       "Recent bank statements (last 3 months) showing current financial status",
			Required:          true,
			DisplayOrder:      3,
			AllowedExtensions: "pdf,jpg,jpeg,png",
		},
		{
			Name:              "Project Proposal",
			Description:       "Detailed project proposal document with timeline and objectives",
			Required:          true,
			DisplayOrder:      4,
			AllowedExtensions: "pdf,doc,docx",
		},
		{
			Name:              "Budget Documentation",
			Description:       "Detailed budget breakdown and cost estimates for your project",
			Required:          true,
			DisplayOrder:      5,
			AllowedExtensions: "pdf,doc,docx",
		},
		{
			Name:              "Reference Letters",
			Description:       "Letters of recommendation or support from community members, employers, or other organizations",
			Required:          false,
			DisplayOrder:      6,
			AllowedExtensions: "pdf,doc,docx,jpg,jpeg,png",
		},
		{
			Name:              "Medical Documentation",
			Description:       "Medical records, bills, or documentation (for healthcare-related requests)",
			Required:          false,
			DisplayOrder:      7,
			AllowedExtensions: "pdf,jpg,jpeg,png",
		},
		{
			Name:              "Educational Records",
			Description:       "Transcripts, enrollment verification, or educational certificates (for education-related requests)",
			Required:          false,
			DisplayOrder:      8,
			AllowedExtensions: "pdf,jpg,jpeg,png",
		},
		{
			Name:              "Business Registration",
			Description:       "Business license, registration, or incorporation documents (for business-related requests)",
			Required:          false,
			DisplayOrder:      9,
			AllowedExtensions: "pdf,jpg,jpeg,png",
		},
		{
			Name:              "Additional Supporting Documents",
			Description:       "Any additional documents that support your application",
			Required:          false,
			DisplayOrder:      10,
			AllowedExtensions: "pdf,doc,docx,jpg,jpeg,png,txt",
		},
	}

	created := 0
	for _, docType := range documentTypes {
		var existing models.DocumentType
		err := config.DB.Where("name = ?", docType.Name).First(&existing).Error
		if err == nil {
			log.Printf("Document type already exists: %s", docType.Name)
			continue
		}

		now := time.Now()
		docType.MaxFileSize = defaultMaxFileSize
		docType.CreateAt = &now
		docType.UpdateAt = &now

		if err := config.DB.Create(&docType).Error; err != nil {
			log.Printf("Failed to create document type %s: %v", docType.Name, err)
			continue
		}
		created++
		log.Printf("Created document type: %s", docType.Name)
	}

	log.Printf("Successfully created %d document types", created)
}
