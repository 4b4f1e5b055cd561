package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	fcolor "github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Config
const (
	DefaultServerURL = "http://localhost:3001"
	TotalImages      = 24
	WorkerCount      = 4
)

var (
	rooms  = []string{"living-room", "kitchen", "bedroom", "office", "lobby", "restaurant", "villa-facade", "bathroom"}
	styles = []string{"modern", "classic", "minimal", "industrial", "scandinavian"}
)

type Result struct {
	Name    string
	Success bool
	Error   error
}

func main() {
	serverURL := strings.TrimRight(envOr("SEED_SERVER_URL", DefaultServerURL), "/")
	secret := envOr("UPLOAD_SECRET", "secret")

	pterm.DefaultHeader.WithFullWidth().WithBackgroundStyle(pterm.NewStyle(pterm.BgLightGreen)).WithTextStyle(pterm.NewStyle(pterm.FgBlack)).Println("VILLAMEDIA SEEDER")
	pterm.Println()

	data := pterm.TableData{
		{"Target Server", fcolor.New(fcolor.FgCyan).Sprint(serverURL)},
		{"Total Assets", fcolor.New(fcolor.FgYellow).Sprintf("%d images", TotalImages)},
		{"Concurrency", fcolor.New(fcolor.FgYellow).Sprintf("%d workers", WorkerCount)},
		{"Auth Secret", fcolor.New(fcolor.FgRed).Sprint("******")},
	}
	_ = pterm.DefaultTable.WithBoxed().WithData(data).Render()
	pterm.Println()

	bar, _ := pterm.DefaultProgressbar.
		WithTotal(TotalImages).
		WithTitle("Seeding media...").
		WithShowCount(true).
		WithShowElapsedTime(true).
		Start()

	client := &http.Client{Timeout: 60 * time.Second}

	var wg sync.WaitGroup
	jobs := make(chan int, TotalImages)
	results := make(chan Result, TotalImages)

	for w := 1; w <= WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- seedOne(client, serverURL, secret, j)
				bar.Increment()
			}
		}()
	}

	for i := 1; i <= TotalImages; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)
	bar.Stop()

	successCount := 0
	var failures []Result
	for res := range results {
		if res.Success {
			successCount++
		} else {
			failures = append(failures, res)
		}
	}

	pterm.Println()
	if len(failures) == 0 {
		pterm.DefaultSection.WithStyle(pterm.NewStyle(pterm.FgGreen)).Println("SEEDING COMPLETED SUCCESSFULLY")
		pterm.Info.Printf("Uploaded %d images.\n", successCount)
	} else {
		pterm.DefaultSection.WithStyle(pterm.NewStyle(pterm.FgYellow)).Println("COMPLETED WITH ERRORS")
		pterm.Info.Printf("Success: %d | Failed: %d\n", successCount, len(failures))

		pterm.Println()
		pterm.Error.Println("Failure Report:")
		for _, f := range failures {
			fmt.Printf(" - %s: %v\n", fcolor.RedString(f.Name), f.Error)
		}
	}
	pterm.Println()
}

func seedOne(client *http.Client, serverURL, secret string, j int) Result {
	room := rooms[rand.Intn(len(rooms))]
	style := styles[rand.Intn(len(styles))]
	name := fmt.Sprintf("%s-%s-%d.jpg", style, room, j)

	// Mix of landscape, portrait and square originals.
	sizes := [][2]int{{2400, 1600}, {1200, 1800}, {1600, 1600}, {800, 450}}
	size := sizes[rand.Intn(len(sizes))]

	imgData, err := sampleImage(size[0], size[1])
	if err != nil {
		return Result{Name: name, Error: fmt.Errorf("generate: %w", err)}
	}

	if err := upload(client, serverURL, secret, name, imgData, fmt.Sprintf("%s %s", style, strings.ReplaceAll(room, "-", " "))); err != nil {
		return Result{Name: name, Error: err}
	}

	slug := fmt.Sprintf("%s-%s-%d", style, room, j)
	collection := "projects"
	if j%3 == 0 {
		collection = "blogPosts"
	}
	if err := registerContent(client, serverURL, secret, collection, slug); err != nil {
		return Result{Name: name, Error: fmt.Errorf("content: %w", err)}
	}
	return Result{Name: name, Success: true}
}

// sampleImage renders a two tone gradient with a random base colour.
func sampleImage(w, h int) ([]byte, error) {
	base := color.NRGBA{R: uint8(rand.Intn(200)), G: uint8(rand.Intn(200)), B: uint8(rand.Intn(200)), A: 255}
	img := imaging.New(w, h, base)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: base.R + uint8(x*55/w),
				G: base.G + uint8(y*55/h),
				B: base.B,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, image.Image(img), imaging.JPEG, imaging.JPEGQuality(88)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func upload(client *http.Client, serverURL, secret, filename string, data []byte, alt string) error {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	part.Write(data)
	_ = writer.WriteField("alt", alt)
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/media", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Secret-Key", secret)

	return send(client, req, http.StatusCreated, http.StatusAccepted)
}

func registerContent(client *http.Client, serverURL, secret, collection, slug string) error {
	payload := fmt.Sprintf(`{"collection":%q,"slug":%q}`, collection, slug)
	req, err := http.NewRequest(http.MethodPut, serverURL+"/api/content", strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Secret-Key", secret)

	return send(client, req, http.StatusOK)
}

func send(client *http.Client, req *http.Request, accept ...int) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, code := range accept {
		if resp.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("server rejected: %d", resp.StatusCode)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
