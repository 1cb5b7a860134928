// Command seed generates a portal seed file with fake patients, providers,
// bookings, and records. Point PORTAL_SEED_FILE at the output to boot the
// portal with the generated data instead of the built-in demo set.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/example/health-portal/internal/persistence"
	"github.com/example/health-portal/internal/persistence/seed"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		out       = flag.String("out", "seed.json", "output path for the generated seed file")
		patients  = flag.Int("patients", 20, "number of patient accounts")
		doctors   = flag.Int("doctors", 5, "number of provider accounts")
		bookings  = flag.Int("bookings", 30, "number of bookings")
		records   = flag.Int("records", 40, "number of medical records")
		seedValue = flag.Int64("seed", 0, "random seed; 0 uses the current time")
	)
	flag.Parse()

	value := *seedValue
	if value == 0 {
		value = time.Now().UnixNano()
	}
	gofakeit.Seed(value)

	log.Printf("generating seed file: %d patients, %d doctors, %d bookings, %d records", *patients, *doctors, *bookings, *records)

	file := generate(*patients, *doctors, *bookings, *records)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output file: %v", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(file); err != nil {
		log.Fatalf("encode seed file: %v", err)
	}

	log.Printf("seed file written: %s", *out)
}

var specialties = []string{
	"Cardiologist",
	"Neurologist",
	"Pediatrician",
	"Dermatologist",
	"Orthopedist",
	"General Practitioner",
	"Psychiatrist",
	"Ophthalmologist",
}

var slotTimes = []string{
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
}

var recordTitles = []string{
	"Annual Physical Examination",
	"Flu Treatment",
	"Blood Work Review",
	"Follow-up Consultation",
	"Vaccination",
	"Allergy Assessment",
	"X-Ray Review",
}

func generate(patients, doctors, bookings, records int) seed.File {
	file := seed.File{}

	patientEntries := make([]seed.DirectoryEntry, 0, patients)
	for i := 0; i < patients; i++ {
		entry := seed.DirectoryEntry{
			ID:     fmt.Sprintf("p%d", i+1),
			Name:   gofakeit.Name(),
			Email:  gofakeit.Email(),
			Role:   "patient",
			Secret: gofakeit.Password(true, true, true, false, false, 12),
		}
		patientEntries = append(patientEntries, entry)
	}

	doctorEntries := make([]seed.DirectoryEntry, 0, doctors)
	for i := 0; i < doctors; i++ {
		name := "Dr. " + gofakeit.Name()
		entry := seed.DirectoryEntry{
			ID:     fmt.Sprintf("d%d", i+1),
			Name:   name,
			Email:  gofakeit.Email(),
			Role:   "doctor",
			Secret: gofakeit.Password(true, true, true, false, false, 12),
		}
		doctorEntries = append(doctorEntries, entry)

		file.Providers = append(file.Providers, persistence.Provider{
			ID:        entry.ID,
			Name:      name,
			Specialty: specialties[gofakeit.Number(0, len(specialties)-1)],
			Fee:       gofakeit.Number(8, 40) * 10,
			Available: gofakeit.Number(0, 9) > 0,
		})
	}

	file.Directory = append(append([]seed.DirectoryEntry(nil), patientEntries...), doctorEntries...)

	for i, label := range slotTimes {
		file.Slots = append(file.Slots, persistence.TimeSlot{
			ID:        fmt.Sprintf("t%d", i+1),
			Time:      label,
			Available: gofakeit.Number(0, 4) > 0,
		})
	}

	if patients == 0 || doctors == 0 {
		return file
	}

	for i := 0; i < bookings; i++ {
		patient := patientEntries[gofakeit.Number(0, len(patientEntries)-1)]
		provider := file.Providers[gofakeit.Number(0, len(file.Providers)-1)]
		status, payment := randomBookingState()

		file.Bookings = append(file.Bookings, persistence.Booking{
			ID:            fmt.Sprintf("a%d", i+1),
			PatientID:     patient.ID,
			PatientName:   patient.Name,
			ProviderID:    provider.ID,
			ProviderName:  provider.Name,
			Date:          gofakeit.DateRange(time.Now(), time.Now().AddDate(0, 2, 0)).Format("2006-01-02"),
			Time:          slotTimes[gofakeit.Number(0, len(slotTimes)-1)],
			Status:        status,
			PaymentStatus: payment,
			Fee:           provider.Fee,
		})
	}

	for i := 0; i < records; i++ {
		patient := patientEntries[gofakeit.Number(0, len(patientEntries)-1)]
		doctor := doctorEntries[gofakeit.Number(0, len(doctorEntries)-1)]

		file.Records = append(file.Records, seed.Record{
			ID:           fmt.Sprintf("r%d", i+1),
			PatientID:    patient.ID,
			Title:        recordTitles[gofakeit.Number(0, len(recordTitles)-1)],
			Date:         gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()).Format("2006-01-02"),
			Description:  gofakeit.Sentence(14),
			AuthorName:   doctor.Name,
			AccessSecret: gofakeit.Password(true, true, true, false, false, 8),
		})
	}

	return file
}

// randomBookingState keeps status and payment consistent: confirmed bookings
// are paid, everything else is pending.
func randomBookingState() (status, payment string) {
	switch gofakeit.Number(0, 3) {
	case 0:
		return "confirmed", "paid"
	case 1:
		return "completed", "paid"
	case 2:
		return "cancelled", "pending"
	default:
		return "scheduled", "pending"
	}
}
