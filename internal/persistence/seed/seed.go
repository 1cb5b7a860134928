// Package seed supplies the initial contents of the portal's in-memory
// stores: a built-in demo data set mirroring the original portal fixtures,
// and a JSON file loader for larger generated sets.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/example/health-portal/internal/persistence"
)

// Hasher derives a storable hash from a plaintext secret. Seed files carry
// demo secrets in the clear; hashing happens at load time so the stores only
// ever hold hashes.
type Hasher func(secret string) (string, error)

// File is the on-disk JSON shape produced by cmd/seed and accepted by Load.
type File struct {
	Directory []DirectoryEntry        `json:"directory"`
	Providers []persistence.Provider  `json:"providers"`
	Slots     []persistence.TimeSlot  `json:"slots"`
	Bookings  []persistence.Booking   `json:"bookings"`
	Records   []Record                `json:"records"`
}

// DirectoryEntry is a directory record with its demo secret in the clear.
type DirectoryEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Secret string `json:"secret"`
}

// Record is a medical record with its demo access secret in the clear.
type Record struct {
	ID           string `json:"id"`
	PatientID    string `json:"patientId"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	AuthorName   string `json:"authorName"`
	AccessSecret string `json:"accessSecret"`
}

// Demo returns the built-in demonstration data set with all secrets hashed.
func Demo(hash Hasher) (persistence.Seed, error) {
	return demoFile().Materialize(hash)
}

// FromFile loads and hashes a JSON seed file.
func FromFile(path string, hash Hasher) (persistence.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return persistence.Seed{}, err
	}
	defer f.Close()
	return Load(f, hash)
}

// Load decodes a seed file from the reader and hashes its secrets.
func Load(r io.Reader, hash Hasher) (persistence.Seed, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return persistence.Seed{}, fmt.Errorf("decode seed file: %w", err)
	}
	return file.Materialize(hash)
}

// Materialize converts the file shape into store seed data, hashing every
// login and record-access secret.
func (f File) Materialize(hash Hasher) (persistence.Seed, error) {
	if hash == nil {
		return persistence.Seed{}, fmt.Errorf("seed hasher is required")
	}

	out := persistence.Seed{
		Providers: append([]persistence.Provider(nil), f.Providers...),
		Slots:     append([]persistence.TimeSlot(nil), f.Slots...),
		Bookings:  append([]persistence.Booking(nil), f.Bookings...),
	}

	for _, entry := range f.Directory {
		secretHash, err := hash(entry.Secret)
		if err != nil {
			return persistence.Seed{}, fmt.Errorf("hash secret for %s: %w", entry.Email, err)
		}
		out.Directory = append(out.Directory, persistence.DirectoryEntry{
			Identity: persistence.Identity{
				ID:    entry.ID,
				Name:  entry.Name,
				Email: entry.Email,
				Role:  entry.Role,
			},
			SecretHash: secretHash,
		})
	}

	for _, record := range f.Records {
		secretHash, err := hash(record.AccessSecret)
		if err != nil {
			return persistence.Seed{}, fmt.Errorf("hash access secret for %s: %w", record.ID, err)
		}
		out.Records = append(out.Records, persistence.MedicalRecord{
			ID:               record.ID,
			PatientID:        record.PatientID,
			Title:            record.Title,
			Date:             record.Date,
			Description:      record.Description,
			AuthorName:       record.AuthorName,
			AccessSecretHash: secretHash,
		})
	}

	return out, nil
}

func demoFile() File {
	return File{
		Directory: []DirectoryEntry{
			{ID: "p1", Name: "John Doe", Email: "patient@example.com", Role: "patient", Secret: "password123"},
			{ID: "d1", Name: "Dr. Smith", Email: "doctor@example.com", Role: "doctor", Secret: "doctor123"},
		},
		Providers: []persistence.Provider{
			{ID: "d1", Name: "Dr. Emily Smith", Specialty: "Cardiologist", Fee: 150, Available: true},
			{ID: "d2", Name: "Dr. James Wilson", Specialty: "Neurologist", Fee: 180, Available: true},
			{ID: "d3", Name: "Dr. Sarah Johnson", Specialty: "Pediatrician", Fee: 120, Available: true},
		},
		Slots: []persistence.TimeSlot{
			{ID: "t1", Time: "9:00 AM", Available: true},
			{ID: "t2", Time: "10:00 AM", Available: true},
			{ID: "t3", Time: "11:00 AM", Available: false},
			{ID: "t4", Time: "1:00 PM", Available: true},
			{ID: "t5", Time: "2:00 PM", Available: true},
			{ID: "t6", Time: "3:00 PM", Available: true},
			{ID: "t7", Time: "4:00 PM", Available: false},
		},
		Bookings: []persistence.Booking{
			{
				ID:            "a1",
				PatientID:     "p1",
				PatientName:   "John Doe",
				ProviderID:    "d1",
				ProviderName:  "Dr. Emily Smith",
				Date:          "2025-06-15",
				Time:          "10:00 AM",
				Status:        "scheduled",
				PaymentStatus: "pending",
				Fee:           150,
			},
			{
				ID:            "a2",
				PatientID:     "p1",
				PatientName:   "John Doe",
				ProviderID:    "d3",
				ProviderName:  "Dr. Sarah Johnson",
				Date:          "2025-06-20",
				Time:          "2:00 PM",
				Status:        "confirmed",
				PaymentStatus: "paid",
				Fee:           120,
			},
		},
		Records: []Record{
			{
				ID:           "r1",
				PatientID:    "p1",
				Title:        "Annual Physical Examination",
				Date:         "2025-02-15",
				Description:  "Patient is in good health. Blood pressure: 120/80, Heart rate: 72 bpm. No significant findings.",
				AuthorName:   "Dr. Emily Smith",
				AccessSecret: "health123",
			},
			{
				ID:           "r2",
				PatientID:    "p1",
				Title:        "Flu Treatment",
				Date:         "2025-01-10",
				Description:  "Patient presented with fever, cough, and sore throat. Diagnosed with influenza A. Prescribed Tamiflu and recommended rest.",
				AuthorName:   "Dr. Sarah Johnson",
				AccessSecret: "flu456",
			},
		},
	}
}
