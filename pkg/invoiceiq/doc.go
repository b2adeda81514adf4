// Package invoiceiq provides a Go client for the InvoiceIQ document API.
//
// The API validates invoice documents, transforms PDFs into structured
// e-invoices, and generates invoices from structured payloads. All three
// operations are asynchronous: submitting a document returns a Job handle
// whose status is polled until it reaches a terminal state.
//
// Example usage:
//
//	client := invoiceiq.NewClient(os.Getenv("INVOICEIQ_API_KEY"))
//
//	f, _ := os.Open("invoice.pdf")
//	defer f.Close()
//
//	job, err := client.TransformPDF(ctx, f, "invoice.pdf", meta, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	job, err = client.WaitForTransformation(ctx, job.ID, invoiceiq.PollConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(job.Status, job.DownloadURL)
package invoiceiq
