package dump

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// WriteYAML renders v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("dump: yaml: %w", err)
	}
	return enc.Close()
}

// WriteText renders r as aligned text.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s := r.Segment; s != nil {
		fmt.Fprintf(tw, "segment\trepetition=%d\tsize=%d\n", s.Repetition, s.Size)
	}
	if h := r.Header; h != nil {
		fmt.Fprintf(tw, "header\tbody_size=%d\theader_size=%d\tcontent_type=%s\n", h.BodySize, h.HeaderSize, h.ContentType)
		writeParams(tw, "", h.Parameters)
		for _, id := range h.Skipped {
			fmt.Fprintf(tw, "  skipped\t0x%02x\n", id)
		}
	}
	if d := r.Directory; d != nil {
		fmt.Fprintf(tw, "directory\tsize=%d\tcarousel_period=%s\tsegment_size=%d\tentries=%d\n",
			d.Size, d.CarouselPeriod, d.SegmentSize, len(d.Entries))
		writeParams(tw, "", d.Parameters)
		for _, e := range d.Entries {
			fmt.Fprintf(tw, "  entry\ttransport_id=%d\tbody_size=%d\theader_size=%d\tcontent_type=%s\n",
				e.TransportID, e.BodySize, e.HeaderSize, e.ContentType)
			writeParams(tw, "  ", e.Parameters)
		}
		for _, e := range d.Errors {
			fmt.Fprintf(tw, "  error\t%s\n", e)
		}
	}
	if b := r.Body; b != nil {
		fmt.Fprintf(tw, "body\tsize=%d\n", b.Size)
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, line := range b.Hex {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
	return tw.Flush()
}

func writeParams(w io.Writer, indent string, ps []ParamReport) {
	for _, p := range ps {
		fmt.Fprintf(w, "%s  param\t0x%02x\t%s\t%s\n", indent, p.ID, p.Kind, p.Value)
	}
}

// WriteObjectsText renders decoded objects and errors one per line.
func WriteObjectsText(w io.Writer, r *ObjectsReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range r.Objects {
		fmt.Fprintf(tw, "object\ttransport_id=%d\tname=%s\tcontent_type=%s\tbody=%d\n", o.TransportID, o.Name, o.ContentType, o.BodySize)
		writeParams(tw, "", o.Parameters)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(tw, "error\t%s\n", e)
	}
	fmt.Fprintf(tw, "pending\t%v\n", r.Pending)
	return tw.Flush()
}
