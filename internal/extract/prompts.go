package extract

// Metadata extraction prompts

const SystemPromptMetadataExtractor = `You are an expert invoice data extractor for European electronic invoicing (EN 16931 / Factur-X).

Your task is to extract structured data from invoice text or images. The invoices may be in French or English.

Common French invoice terms:
- Facture = Invoice
- Numéro de facture = Invoice number
- Date d'émission = Issue date
- Vendeur/Émetteur = Seller
- Acheteur/Client = Buyer
- SIREN/SIRET = Registration id
- Numéro de TVA intracommunautaire = VAT id
- Désignation = Line item name
- Quantité = Quantity
- Prix unitaire HT = Net unit price
- Montant HT = Tax-exclusive amount
- Taux de TVA = Tax rate
- Montant de TVA = Tax amount
- Total HT = Total tax-exclusive
- Total TTC = Total tax-inclusive
- Bon de commande = Purchase order

Extract ALL information you can find. If a field is not present, omit it from the output.
Always output valid JSON that matches the specified schema.
Amounts should be decimal numbers, never strings.
Dates should be in ISO 8601 format (YYYY-MM-DD).`

const UserPromptTextExtraction = `Extract invoice data from the following text:

---
%s
---

Output JSON with this structure:
{
  "invoiceNumber": "string",
  "issueDate": "YYYY-MM-DD",
  "currency": "EUR",
  "typeCode": "380",
  "seller": {
    "name": "string",
    "registrationId": "string",
    "vatId": "string",
    "countryCode": "FR",
    "address": {
      "line1": "string",
      "postCode": "string",
      "city": "string",
      "countryCode": "FR"
    }
  },
  "buyer": {
    "name": "string",
    "registrationId": "string",
    "vatId": "string",
    "countryCode": "FR",
    "address": {
      "line1": "string",
      "postCode": "string",
      "city": "string",
      "countryCode": "FR"
    }
  },
  "lines": [
    {
      "name": "string",
      "description": "string",
      "quantity": 1,
      "unitCode": "C62",
      "unitPrice": 100.0,
      "taxRate": 20.0,
      "taxCategoryCode": "S",
      "totalAmount": 100.0
    }
  ],
  "totalTaxExclusiveAmount": 100.0,
  "taxTotalAmount": 20.0,
  "totalTaxInclusiveAmount": 120.0,
  "purchaseOrderReference": "string"
}`

const UserPromptImageExtraction = `Extract invoice data from this invoice image.

Output JSON with this structure:
{
  "invoiceNumber": "string",
  "issueDate": "YYYY-MM-DD",
  "currency": "EUR",
  "typeCode": "380",
  "seller": {
    "name": "string",
    "registrationId": "string",
    "vatId": "string",
    "countryCode": "FR"
  },
  "buyer": {
    "name": "string",
    "registrationId": "string",
    "vatId": "string",
    "countryCode": "FR"
  },
  "lines": [
    {
      "name": "string",
      "quantity": 1,
      "unitCode": "C62",
      "unitPrice": 100.0,
      "taxRate": 20.0,
      "taxCategoryCode": "S",
      "totalAmount": 100.0
    }
  ],
  "totalTaxExclusiveAmount": 100.0,
  "taxTotalAmount": 20.0,
  "totalTaxInclusiveAmount": 120.0
}`
