package shopify

const queryFindCustomer = `query FindCustomerByEmail($query: String!) {
  customers(first: 1, query: $query) {
    edges { node { id email } }
  }
}`

const mutationCustomerCreate = `mutation customerCreate($input: CustomerInput!) {
  customerCreate(input: $input) {
    customer { id }
    userErrors { field message }
  }
}`

const queryCollectionByHandle = `query CollectionByHandle($handle: String!) {
  collectionByHandle(handle: $handle) { id }
}`

const mutationFreeShipping = `mutation discountCodeFreeShippingCreate($discount: DiscountCodeFreeShippingInput!) {
  discountCodeFreeShippingCreate(freeShippingCodeDiscount: $discount) {
    codeDiscountNode { id }
    userErrors { field code message }
  }
}`

const mutationBasic = `mutation discountCodeBasicCreate($discount: DiscountCodeBasicInput!) {
  discountCodeBasicCreate(basicCodeDiscount: $discount) {
    codeDiscountNode { id }
    userErrors { field code message }
  }
}`

const mutationBxgy = `mutation discountCodeBxgyCreate($discount: DiscountCodeBxgyInput!) {
  discountCodeBxgyCreate(bxgyCodeDiscount: $discount) {
    codeDiscountNode { id }
    userErrors { field code message }
  }
}`

const mutationMetafieldsSet = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id key namespace }
    userErrors { field message }
  }
}`
