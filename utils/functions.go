package utils

import (
	"fmt"
	"mime"
	"net"
	"net/http"
	u "net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const Version = "0.2.0"

const ToolUserAgent = "rget/" + Version

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// ParseHeaderArgs turns "Name: value" strings into a header map, skipping
// malformed entries.
func ParseHeaderArgs(args []string) map[string]string {
	log := GetLogger("config")
	headers := make(map[string]string)
	for _, arg := range args {
		name, value, found := strings.Cut(arg, ":")
		if !found || strings.TrimSpace(name) == "" {
			log.Warn().Str("header", arg).Msg("Ignoring malformed header argument")
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}

// includes logger
func ReadDownloadList(filePath string) ([]DownloadEntry, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	var entries []DownloadEntry
	err = yaml.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("missing URL for entry %d", i+1)
		}
	}
	log.Debug().Int("count", len(entries)).Msg("Entries loaded from YAML")
	return entries, nil
}

// LoadURLFile reads a plain text URL list, one per line, skipping blank
// lines and '#' comments.
func LoadURLFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %v", err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

func CreateHTTPClient(timeout time.Duration, keepAliveTO time.Duration, proxyURL string) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100, // for connection reuse
		IdleConnTimeout:     keepAliveTO,
		DisableCompression:  true,
		MaxConnsPerHost:     0,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if proxyURL != "" {
		proxyURLParsed, err := u.Parse(proxyURL)
		if err != nil {
			log.Error().Err(err).Str("proxy", proxyURL).Msg("Invalid proxy URL, proceeding without proxy")
		} else {
			transport.Proxy = http.ProxyURL(proxyURLParsed)
			log.Debug().Str("proxy", proxyURL).Msg("Using proxy for connections")
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// GetFileInfo probes the URL with a HEAD request for content length, range
// support, and a server-suggested filename. Size is -1 when the server
// didn't report a usable Content-Length.
func GetFileInfo(url string, client *http.Client, userAgent string) (*RemoteFileInfo, error) {
	req, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	info := &RemoteFileInfo{Size: -1}
	if contentDisposition := resp.Header.Get("Content-Disposition"); contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if fn, ok := params["filename"]; ok && fn != "" {
				info.Filename = filenameRegex.ReplaceAllString(fn, "_")
			} else if fn, ok := params["filename*"]; ok && strings.HasPrefix(fn, "UTF-8''") {
				unescaped, _ := u.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
				info.Filename = filenameRegex.ReplaceAllString(unescaped, "_")
			}
		}
	}
	info.AcceptsRanges = resp.Header.Get("Accept-Ranges") == "bytes"
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil && size > 0 {
			info.Size = size
		}
	}
	return info, nil
}

var commonDomainExts = map[string]bool{
	"com": true, "org": true, "net": true, "edu": true, "gov": true,
	"int": true, "mil": true, "co": true, "io": true, "dev": true,
	"uk": true, "de": true, "fr": true, "jp": true, "info": true,
}

// FallbackFilename derives an output name from the last URL path segment,
// or "download.bin" when the segment doesn't look like a file name.
func FallbackFilename(url string) string {
	last := ""
	if parsed, err := u.Parse(url); err == nil {
		segments := strings.Split(strings.TrimSuffix(parsed.Path, "/"), "/")
		last = segments[len(segments)-1]
	}
	if last == "" {
		return "download.bin"
	}
	if dot := strings.LastIndex(last, "."); dot >= 0 {
		ext := last[dot+1:]
		if len(ext) >= 1 && len(ext) <= 5 && !commonDomainExts[strings.ToLower(ext)] {
			return last
		}
	}
	return "download.bin"
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Clean removes leftover temp chunk files for the given output path.
func Clean(outputPath string) error {
	matches, err := filepath.Glob(outputPath + ".tmp.chunk.*")
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return err
		}
	}
	return nil
}
