package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/database"
	"github.com/apexlabs/ntamock-backend/internal/event"
	"github.com/apexlabs/ntamock-backend/internal/logger"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/store"
)

var names = []string{
	"Aarav Sharma", "Diya Patel", "Vihaan Reddy", "Ananya Iyer", "Arjun Nair",
	"Saanvi Gupta", "Reyansh Das", "Ishita Menon", "Kabir Singh", "Meera Joshi",
	"Aditya Rao", "Kavya Pillai", "Rohan Verma", "Tara Bhat", "Dev Malhotra",
	"Nisha Kulkarni", "Yash Agarwal", "Riya Chatterjee", "Kunal Mehta", "Pooja Hegde",
}

var subjects = []string{"Physics", "Chemistry", "Mathematics"}

func main() {
	count := flag.Int("students", len(names), "Number of students to seed")
	withExam := flag.Bool("exam", true, "Also seed a sample Paper 1")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	events, err := event.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
	}
	defer events.Close()

	feed := store.NewFeed(rdb, log)
	studentService := service.NewStudentService(repository.NewStudentRepository(pool, feed), log)
	examService := service.NewExamService(
		repository.NewExamRepository(pool, feed),
		service.NewRedisExamCache(rdb),
		events, nil, log,
	)

	fmt.Printf("=== Seeding %d Students ===\n", *count)
	created := 0
	for i := 0; i < *count; i++ {
		req := &model.CreateStudentRequest{
			Name:       names[i%len(names)],
			RollNumber: fmt.Sprintf("2024JEE%05d", i+1),
		}
		if _, err := studentService.Save(ctx, req); err != nil {
			if errors.Is(err, repository.ErrDuplicateRollNumber) {
				continue
			}
			fmt.Printf("Error creating %s (%s): %v\n", req.Name, req.RollNumber, err)
			continue
		}
		created++
	}
	fmt.Printf("Added %d/%d students.\n", created, *count)

	if !*withExam {
		return
	}
	exam, err := examService.Save(ctx, "", samplePaper())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed sample exam")
	}
	fmt.Printf("Sample exam '%s' saved with ID: %s (%d questions)\n", exam.Name, exam.ID, len(exam.Questions))
}

// samplePaper builds a 90-question Paper 1: per subject 20 MCQs in
// section A followed by 10 NATs in section B.
func samplePaper() *model.SaveExamRequest {
	difficulties := []string{"EASY", "MEDIUM", "HARD"}
	questions := make([]model.QuestionInput, 0, 90)

	for i := 0; i < 90; i++ {
		subject := subjects[i/30]
		local := i % 30
		q := model.QuestionInput{
			ID:         i + 1,
			Subject:    subject,
			Type:       "MCQ",
			Section:    "A",
			Difficulty: difficulties[i%3],
			Text:       fmt.Sprintf("This is a sample JEE question %d for %s.", i+1, subject),
		}
		if local >= 20 {
			q.Type = "NAT"
			q.Section = "B"
			q.CorrectAnswer = "1.77"
		} else {
			q.Options = []string{"Option A", "Option B", "Option C", "Option D"}
			q.CorrectAnswer = "0"
		}

		switch subject {
		case "Physics":
			q.Text = `A particle of mass $m$ moves in a circle of radius $r$ with angular velocity $\omega$. The centripetal force is given by:`
			if q.Type == "MCQ" {
				q.Options = []string{`$m \omega^2 r$`, `$m \omega r^2$`, `$m \omega r$`, `$m^2 \omega r$`}
			}
		case "Mathematics":
			q.Text = `Solve the integral: $$\int_0^\infty e^{-x^2} dx$$ if it is given that the function is continuous.`
			if q.Type == "MCQ" {
				q.Options = []string{`$\sqrt{\pi}$`, `$\frac{\sqrt{\pi}}{2}$`, `$\pi$`, `$\frac{\pi}{2}$`}
			}
		}
		questions = append(questions, q)
	}

	return &model.SaveExamRequest{
		Name:            "JEE-Main Paper 1 (Sample)",
		DurationMinutes: 180,
		Questions:       questions,
	}
}
