// fileutils.go
package fileutils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HashReader stream üzerinden sha256 hesaplar; büyük video dosyaları için
// içerik belleğe alınmaz.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash hesaplanamadı: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Dosya hash hesaplama
func HashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("dosya açılamadı: %w", err)
	}
	defer file.Close()
	return HashReader(file)
}

// HashBytes küçük bufferlar (chunk etag'leri) için.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Windows'un rezerve device isimleri; uzantılı halleri de reddedilir (CON.txt gibi).
var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
	"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// Çalıştırılabilir içeriği maskelemek için kullanılan çift uzantılar
var dangerousExts = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".sh": true,
	".ps1": true, ".scr": true, ".com": true, ".js": true,
}

// ValidateFilename upload edilen dosya adını güvenlik açısından kontrol eder:
// kontrol karakterleri, path ayraçları, rezerve device isimleri ve
// çift uzantı (resim.jpg.exe gibi).
func ValidateFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return fmt.Errorf("boş veya geçersiz dosya adı")
	}
	if filepath.Base(filename) != filename {
		return fmt.Errorf("dosya adı path içeremez: %q", filename)
	}
	for _, r := range filename {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("dosya adı kontrol karakteri içeriyor")
		}
	}
	if strings.ContainsAny(filename, `<>:"/\|?*`) {
		return fmt.Errorf("dosya adı yasaklı karakter içeriyor: %q", filename)
	}

	base := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if reservedNames[strings.ToLower(filename)] || reservedNames[base] {
		return fmt.Errorf("rezerve device ismi: %q", filename)
	}

	// Çift uzantı kontrolü: son uzantıdan önceki parça da bilinen tehlikeli
	// bir uzantıysa reddet
	parts := strings.Split(strings.ToLower(filename), ".")
	if len(parts) > 2 {
		last := "." + parts[len(parts)-1]
		if dangerousExts[last] {
			return fmt.Errorf("şüpheli çift uzantı: %q", filename)
		}
	}

	return nil
}

// MakeStorageKey content-addressed storage key üretir: hash + orijinal uzantı.
// Aynı içerik hangi isimle gelirse gelsin aynı key'e çözülür.
func MakeStorageKey(hash, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return hash[:2] + "/" + hash + ext
}

func GetMimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".avi":
		return "video/avi"
	case ".mkv":
		return "video/mkv"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	imageExtensions := []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

	for _, imgExt := range imageExtensions {
		if ext == imgExt {
			return true
		}
	}
	return false
}

func IsVideoFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	videoExtensions := []string{".mp4", ".avi", ".mkv", ".mov"}
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

func IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	audioExtensions := []string{".mp3", ".wav", ".flac", ".ogg"}
	for _, v := range audioExtensions {
		if ext == v {
			return true
		}
	}
	return false
}
