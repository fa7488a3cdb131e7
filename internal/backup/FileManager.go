package backup

import (
	"os"

	json "github.com/goccy/go-json"

	"gamestats/internal/backup/interfaces"
	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/store"
)

// snapshotFile is the portable on-disk backup: the full metadata and
// history tables as compressed JSON.
type snapshotFile struct {
	Metadata []*models.MetadataRow   `json:"metadata"`
	History  []*models.HistoryRecord `json:"history"`
}

type FileManager struct {
	store      store.StoreInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store store.StoreInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	metadata, err := f.store.GetAllMetadata()
	if err != nil {
		return err
	}
	history, err := f.store.GetAllHistory()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(snapshotFile{Metadata: metadata, History: history})
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile seeds an empty store from a backup snapshot. A store
// that already holds metadata is left untouched, the live tables win
// over the file.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	existing, err := f.store.GetAllMetadata()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		f.logger.Infof(providers.TypeApp, "Store already populated, skipping backup restore")
		return nil
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var snapshot snapshotFile
	if err := json.Unmarshal(decompressedData, &snapshot); err != nil {
		return err
	}

	for _, row := range snapshot.Metadata {
		if err := f.store.PutMetadata(row); err != nil {
			return err
		}
	}
	if len(snapshot.History) > 0 {
		if err := f.store.ReplaceHistory(snapshot.History); err != nil {
			return err
		}
	}
	f.logger.Infof(providers.TypeApp, "Restored %d metadata rows and %d history records from %s", len(snapshot.Metadata), len(snapshot.History), fileName)
	return nil
}
