package httpapi

import (
	"archive/zip"
	"io"
	"net/http"

	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
	"github.com/rayhunter-go/rayhunter/internal/pcapng"
	"github.com/rayhunter-go/rayhunter/internal/qmdl"
)

// streamPcap reads every frame of qf through the GSMTAP lift and writes it
// as a PCAP-NG enhanced packet block, skipping frames the lift layer has
// nothing to say about exactly the way the analyzer harness does (spec
// §4.9, §4.6).
func streamPcap(qf io.Reader, w io.Writer) error {
	pw, err := pcapng.NewWriter(w)
	if err != nil {
		return err
	}

	reader := qmdl.NewReader(qf, nil)
	for {
		c, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(c.Messages) == 0 {
			continue
		}
		decoded, err := diagwire.ParseMessage(c.Messages[0])
		if err != nil {
			continue
		}
		if decoded.Kind != diagwire.KindLog && decoded.Kind != diagwire.KindExtendedLog {
			continue
		}
		msg, ok := gsmtap.Lift(decoded)
		if !ok {
			continue
		}
		if err := pw.WriteMessage(msg, msg.Encode()); err != nil {
			return err
		}
	}
}

func (s *Server) handlePcap(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	idx, entry, ok := s.store.EntryForName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown recording")
		return
	}
	if entry.QmdlSizeBytes == 0 {
		writeError(w, http.StatusServiceUnavailable, "qmdl file is empty")
		return
	}
	f, err := s.store.OpenEntryQmdl(idx)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.pcapng"`)
	if err := streamPcap(f, w); err != nil {
		s.logger.Warn("pcap export failed partway through", "name", name, "error", err)
	}
}

// handleZip writes a zip of <name>.qmdl, <name>.ndjson, and a one-entry
// manifest fragment describing just this recording (spec §6).
func (s *Server) handleZip(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	idx, entry, ok := s.store.EntryForName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown recording")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.zip"`)
	zw := zip.NewWriter(w)
	defer zw.Close()

	if entry.QmdlSizeBytes > 0 {
		qf, err := s.store.OpenEntryQmdl(idx)
		if err == nil {
			defer qf.Close()
			if zf, err := zw.Create(name + ".qmdl"); err == nil {
				io.CopyN(zf, qf, int64(entry.QmdlSizeBytes))
			}
		}
	}

	af, err := s.store.OpenEntryAnalysis(idx)
	if err == nil {
		defer af.Close()
		if zf, err := zw.Create(name + ".ndjson"); err == nil {
			io.Copy(zf, af)
		}
	}

	if zf, err := zw.Create("manifest-fragment.json"); err == nil {
		writeJSON(&zipJSONWriter{zf}, toManifestEntry(entry))
	}
}

// zipJSONWriter adapts an io.Writer (a zip entry) to the http.ResponseWriter
// subset writeJSON needs.
type zipJSONWriter struct{ io.Writer }

func (z *zipJSONWriter) Header() http.Header         { return http.Header{} }
func (z *zipJSONWriter) WriteHeader(statusCode int)  {}
